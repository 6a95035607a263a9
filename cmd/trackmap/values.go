package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trackmap/trackmap-engine/pkg/apperrors"
	"github.com/trackmap/trackmap-engine/pkg/editor"
	"github.com/trackmap/trackmap-engine/pkg/models"
)

// impactConcurrency bounds parallel impact queries in "values list --impact".
const impactConcurrency = 4

// valuesAPI is the part of the engine client the CLI uses.
type valuesAPI interface {
	editor.API
	ListSuggestedValues(ctx context.Context) ([]*models.SuggestedValue, error)
	GetSuggestedValue(ctx context.Context, id uuid.UUID) (*models.SuggestedValue, error)
	CreateSuggestedValue(ctx context.Context, patch models.SuggestedValuePatch) (*models.SuggestedValue, error)
}

func newValuesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "values",
		Aliases: []string{"value", "sv"},
		Short:   "Manage suggested values",
	}
	cmd.AddCommand(
		newValuesListCmd(a),
		newValuesCreateCmd(a),
		newValuesEditCmd(a),
		newValuesDeleteCmd(a),
	)
	return cmd
}

// typeFlags holds the mutually exclusive --contextual / --static pair.
type typeFlags struct {
	contextual bool
	static     bool
}

func (f *typeFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.contextual, "contextual", false, "mark the value as contextual (templated)")
	cmd.Flags().BoolVar(&f.static, "static", false, "mark the value as static (literal)")
	cmd.MarkFlagsMutuallyExclusive("contextual", "static")
}

// selected returns the picked type, or nil when neither flag was given.
func (f *typeFlags) selected() *bool {
	switch {
	case f.contextual:
		v := true
		return &v
	case f.static:
		v := false
		return &v
	}
	return nil
}

// ============================================================================
// list
// ============================================================================

func newValuesListCmd(a *app) *cobra.Command {
	var withImpact bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List suggested values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}
			return a.listValues(cmd.Context(), cmd.OutOrStdout(), api, withImpact)
		},
	}
	cmd.Flags().BoolVar(&withImpact, "impact", false, "also show how many events reference each value")
	return cmd
}

func (a *app) listValues(ctx context.Context, w io.Writer, api valuesAPI, withImpact bool) error {
	values, err := api.ListSuggestedValues(ctx)
	if err != nil {
		return fmt.Errorf("failed to list suggested values: %w", err)
	}

	rows := make([]valueRow, len(values))
	for i, v := range values {
		rows[i] = newValueRow(v)
	}

	if withImpact {
		var g errgroup.Group
		g.SetLimit(impactConcurrency)
		for i, v := range values {
			g.Go(func() error {
				impact, err := api.GetSuggestedValueImpact(ctx, v.ID)
				if err != nil {
					a.log.Warn("Impact query failed", "value", v.Value, "err", err)
					return nil
				}
				count := impact.AffectedEventsCount
				rows[i].AffectedEvents = &count
				return nil
			})
		}
		_ = g.Wait()
	}

	return writeValues(w, a.cfg.Output, rows, withImpact)
}

// ============================================================================
// create
// ============================================================================

func newValuesCreateCmd(a *app) *cobra.Command {
	var types typeFlags

	cmd := &cobra.Command{
		Use:   "create <value>",
		Short: "Create a suggested value",
		Long: `Create a suggested value. Without --contextual or --static the server
decides the type from the text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.api()
			if err != nil {
				return err
			}

			created, err := api.CreateSuggestedValue(cmd.Context(), models.SuggestedValuePatch{
				Value:        args[0],
				IsContextual: types.selected(),
			})
			if conflict, ok := apperrors.AsSuggestedValueConflict(err); ok {
				existing := conflict.ExistingValue
				return fmt.Errorf("suggested value %q already exists (id %s)", existing.Value, existing.ID)
			}
			if err != nil {
				return fmt.Errorf("failed to create suggested value: %w", err)
			}

			a.log.Infof("Created %q", created.Value)
			return writeValues(cmd.OutOrStdout(), a.cfg.Output, []valueRow{newValueRow(created)}, false)
		},
	}
	types.register(cmd)
	return cmd
}

// ============================================================================
// edit
// ============================================================================

func newValuesEditCmd(a *app) *cobra.Command {
	var (
		types typeFlags
		value string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a suggested value",
		Long: `Edit a suggested value. If the new text matches another value, you are
offered to merge this value into it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid suggested value ID %q: %w", args[0], err)
			}
			api, err := a.api()
			if err != nil {
				return err
			}
			var text *string
			if cmd.Flags().Changed("value") {
				text = &value
			}
			return a.editValue(cmd.Context(), cmd.OutOrStdout(), api, id, text, types.selected())
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "new text (prompted for when omitted)")
	types.register(cmd)
	return cmd
}

func (a *app) editValue(ctx context.Context, w io.Writer, api valuesAPI, id uuid.UUID, text *string, isContextual *bool) error {
	current, err := api.GetSuggestedValue(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load suggested value: %w", err)
	}

	session, err := a.newSession(api)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Open(*current); err != nil {
		return err
	}

	if text == nil {
		if a.yes {
			return errors.New("--value is required with --yes")
		}
		input, err := a.prompter.Input(fmt.Sprintf("New text for %q", current.Value), current.Value)
		if err != nil {
			return err
		}
		text = &input
	}
	if err := session.SetValue(*text); err != nil {
		return err
	}
	if isContextual != nil {
		if err := session.SelectType(*isContextual); err != nil {
			return err
		}
	}

	if err := session.Submit(ctx); err != nil {
		return err
	}

	view := session.Snapshot()
	switch {
	case view.FieldError != "":
		return errors.New(view.FieldError)
	case view.FormError != "":
		return errors.New(view.FormError)
	case view.Merge != nil:
		return a.resolveMerge(ctx, w, session, *view.Merge)
	}

	a.log.Infof("Saved %q", view.Target.Value)
	return writeValues(w, a.cfg.Output, []valueRow{newValueRow(&view.Target)}, false)
}

// resolveMerge keeps the merge dialog up until the user merges or cancels.
// A failed merge is shown again with its error; with --yes it is returned.
func (a *app) resolveMerge(ctx context.Context, w io.Writer, session *editor.Session, dialog editor.MergeDialog) error {
	for {
		writeDialog(w, editor.RenderMergeDialog(dialog))

		ok, err := a.confirm(w, "Merge?")
		if err != nil {
			return err
		}
		if !ok {
			if err := session.CancelMerge(); err != nil {
				return err
			}
			a.log.Warn("Merge cancelled, nothing was saved")
			return nil
		}

		if err := session.ConfirmMerge(ctx); err != nil {
			return err
		}
		merge := session.Snapshot().Merge
		if merge == nil {
			break
		}
		if a.yes {
			return errors.New(merge.Error)
		}
		dialog = *merge
	}

	a.log.Infof("Merged %q into %q", dialog.Source.Value, dialog.Existing.Value)
	return nil
}

// ============================================================================
// delete
// ============================================================================

func newValuesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a suggested value",
		Long: `Delete a suggested value. The events that reference it are listed first;
their properties keep their text but lose the link to the value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid suggested value ID %q: %w", args[0], err)
			}
			api, err := a.api()
			if err != nil {
				return err
			}
			return a.deleteValue(cmd.Context(), cmd.OutOrStdout(), api, id)
		},
	}
}

func (a *app) deleteValue(ctx context.Context, w io.Writer, api valuesAPI, id uuid.UUID) error {
	current, err := api.GetSuggestedValue(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load suggested value: %w", err)
	}

	session, err := a.newSession(api)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Open(*current); err != nil {
		return err
	}
	if err := session.RequestDelete(ctx); err != nil {
		return err
	}

	dialog := session.Snapshot().Delete
	if dialog == nil {
		return errors.New("delete confirmation did not open")
	}

	for {
		writeDialog(w, editor.RenderDeleteDialog(*dialog))

		ok, err := a.confirm(w, "Delete?")
		if err != nil {
			return err
		}
		if !ok {
			if err := session.CancelDelete(); err != nil {
				return err
			}
			a.log.Warn("Delete cancelled")
			return nil
		}

		if err := session.ConfirmDelete(ctx); err != nil {
			return err
		}
		view := session.Snapshot()
		if view.FormError != "" {
			return errors.New(view.FormError)
		}
		if view.Delete == nil {
			break
		}
		// An itemized confirmation stays open after a failure.
		if a.yes {
			return errors.New(view.Delete.Error)
		}
		dialog = view.Delete
	}

	a.log.Infof("Deleted %q", current.Value)
	return nil
}

func (a *app) newSession(api valuesAPI) (*editor.Session, error) {
	return editor.New(api,
		editor.WithClassifier(a.classifier),
		editor.WithCallbacks(editor.Callbacks{
			OnRefresh: func() { a.log.Debug("Suggested values changed") },
		}),
	)
}
