package main

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/intake/modules/intake/domain/directive"
	"github.com/iota-uz/intake/modules/intake/infrastructure/portalapi"
	"github.com/iota-uz/intake/modules/intake/services"
	"github.com/iota-uz/intake/pkg/logging"
	"github.com/iota-uz/intake/pkg/scheduler"
)

// consoleView prints every directive as a JSON line. Nothing is ever saving or in error.
type consoleView struct {
	mu  sync.Mutex
	out io.Writer
	log *logrus.Entry
}

func (v *consoleView) SavingInProgress(string) bool { return false }
func (v *consoleView) SectionHasError(string) bool  { return false }

func (v *consoleView) Render(d directive.Directive) {
	raw, err := directive.Marshal(d)
	if err != nil {
		v.log.WithError(err).Error("encode directive")
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	_, _ = v.out.Write(append(raw, '\n'))
}

func newWalkCmd() *cobra.Command {
	var page pageOptions
	var portal portalOptions
	var duration time.Duration
	var verbose bool

	cmd := &cobra.Command{
		Use:   "walk --base-url <url> [--user <id>] [--duration 3s]",
		Short: "Run the wizard controller headless and print the directives it sends to the page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), duration)
			defer cancel()

			p, err := page.load(ctx)
			if err != nil {
				return err
			}
			client, err := portal.client()
			if err != nil {
				return err
			}
			level := logrus.WarnLevel
			if verbose {
				level = logrus.DebugLevel
			}
			log := logrus.NewEntry(logging.ConsoleLogger(level))

			ctrl := services.NewController(services.Deps{
				API:       client,
				Roles:     client,
				Loader:    portalapi.NewSectionLoader(client, portalapi.DefaultSectionIDs()),
				Orgs:      client,
				View:      &consoleView{out: cmd.OutOrStdout(), log: log},
				Scheduler: scheduler.NewReal(),
				Logger:    log,
			}, services.Options{})
			defer ctrl.Close()

			if err := ctrl.Initialize(ctx, p); err != nil {
				return err
			}
			<-ctx.Done()
			return ctrl.HaltReason()
		},
	}
	page.bind(cmd)
	portal.bind(cmd)
	cmd.Flags().DurationVar(&duration, "duration", 3*time.Second, "how long to watch the controller")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}
