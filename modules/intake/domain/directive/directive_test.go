package directive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshal_WrapsPayloadWithType(t *testing.T) {
	raw, err := Marshal(ShowRetry{SectionID: "demographicsContainer", Label: "Try Again"})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"show_retry","payload":{"section_id":"demographicsContainer","label":"Try Again"}}`, string(raw))

	raw, err = Marshal(Reload{})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"reload","payload":{}}`, string(raw))
}

func TestMarshal_SectionDataKeepsRawPayload(t *testing.T) {
	raw, err := Marshal(SectionData{SectionID: "topTerms", Payload: json.RawMessage(`{"tous":[]}`)})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"section_data","payload":{"section_id":"topTerms","payload":{"tous":[]}}}`, string(raw))
}
