package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/books"
	"github.com/five82/shelf/internal/logger"
	"github.com/five82/shelf/internal/state"
	"github.com/five82/shelf/internal/ui"
)

// Search runs one query through the search session and prints the outcome.
// A failed or (under the default policy) empty search is returned as an
// error.
func Search(ctx context.Context, opts Options, query string, out io.Writer, asJSON bool) error {
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	machine := env.NewMachine(nil)
	defer machine.Close()

	snap := machine.StartSearch(ctx, query)
	env.Log.WithFields(logrus.Fields{
		"query": snap.Query,
		"state": snap.Kind.String(),
	}).Debug("one-shot search finished")

	switch snap.Kind {
	case state.KindList:
		return ui.PrintList(out, snap.Books, asJSON)
	case state.KindEmpty:
		return ui.PrintList(out, nil, asJSON)
	case state.KindError:
		if errors.Is(snap.Err, books.ErrEmptyResult) {
			return fmt.Errorf("no books found for %q", snap.Query)
		}
		return fmt.Errorf("search %q: %w", snap.Query, snap.Err)
	default:
		return fmt.Errorf("search %q: unexpected state %s", snap.Query, snap.Kind)
	}
}

// Show fetches a single volume by id and prints it in full.
func Show(ctx context.Context, opts Options, id string, out io.Writer, asJSON bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("volume id is required")
	}

	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	done := logger.Track(env.Log.WithField("id", id), "volume lookup")
	book, err := env.Client.Volume(ctx, id)
	done()
	env.Metrics.ObserveDetail(state.Outcome(err))
	if err != nil {
		return fmt.Errorf("show %s: %w", id, err)
	}
	return ui.PrintBook(out, book, asJSON)
}
