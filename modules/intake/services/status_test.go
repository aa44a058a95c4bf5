package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/intake/modules/intake/domain/aggregates/section"
	"github.com/iota-uz/intake/modules/intake/domain/requiredfields"
)

func statusPage(userID string) section.Page {
	return section.Page{
		UserID: userID,
		Sections: []section.Descriptor{
			{ID: termsID, Config: "website_terms_of_use", Display: "Terms"},
			{ID: demoID, Config: "name,dob", Display: "Demographics"},
			{ID: orgsID, Config: "org", Display: "Clinics"},
		},
	}
}

func TestEvaluate_ReportsFirstIncompleteSection(t *testing.T) {
	api := &fakeAPI{}
	api.setNeeded("dob", "org")
	api.needed = append(api.needed, requiredfields.Item{Field: "privacy_policy", CollectionMethod: "ACCEPT_ON_NEXT"})

	st, err := Evaluate(context.Background(), api, statusPage("42"))
	require.NoError(t, err)
	require.Equal(t, "42", st.UserID)
	require.Equal(t, demoID, st.Next)
	require.False(t, st.Complete)
	require.False(t, st.Fallback)
	require.Equal(t, []string{"privacy_policy"}, st.AcceptOnNext)
	require.Len(t, st.Sections, 3)
	require.True(t, st.Sections[0].Complete)
	require.False(t, st.Sections[1].Complete)
	require.Equal(t, []string{"name", "dob"}, st.Sections[1].Fields)
}

func TestEvaluate_FallsBackToRequiredCoreData(t *testing.T) {
	api := &fakeAPI{
		currentUser:  "7",
		neededErr:    ErrStillNeededMissing,
		requiredCore: []string{"website_terms_of_use"},
	}
	st, err := Evaluate(context.Background(), api, statusPage(""))
	require.NoError(t, err)
	require.Equal(t, "7", st.UserID)
	require.True(t, st.Fallback)
	require.Equal(t, termsID, st.Next)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate(context.Background(), &fakeAPI{}, statusPage(""))
	require.ErrorIs(t, err, ErrUserIDRequired)

	api := &fakeAPI{neededErr: errors.New("down"), requiredErr: errors.New("down too")}
	_, err = Evaluate(context.Background(), api, statusPage("1"))
	require.ErrorIs(t, err, ErrConfigUnavailable)
}

func TestEvaluate_EverythingComplete(t *testing.T) {
	api := &fakeAPI{}
	api.setNeeded()
	st, err := Evaluate(context.Background(), api, statusPage("1"))
	require.NoError(t, err)
	require.True(t, st.Complete)
	require.Empty(t, st.Next)
}
