// =============================================================================
// Census Bulk Importer - Interactive Editor
// =============================================================================
//
// This module lets the user correct loaded records before submission.
//
// FLOW:
//   1. ChooseRecord lists every record as "Comunidad / Torre / Casa: Label".
//   2. EditRecord shows one input per field, prefilled with the current value.
//   3. Only fields whose value changed are applied, through
//      BeginEdit -> ApplyEdit -> CloseEdit.
//   4. Repeat until the user picks "Terminar edición".
//
// The prompts sit behind the Prompter interface; Forms is the huh
// implementation used by the CLI.
//
// =============================================================================

package editor

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/ginjaninja78/census-bulk-importer/internal/pipeline"
	"github.com/ginjaninja78/census-bulk-importer/internal/types"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("edit aborted by user")

// doneValue is the select value meaning "stop editing".
const doneValue = ""

// Choice is one selectable record.
type Choice struct {
	Title  string
	TempID string
}

// Prompter asks the user for input.
type Prompter interface {
	// ChooseRecord returns the chosen TempID, or "" to stop.
	ChooseRecord(choices []Choice) (string, error)

	// EditRecord returns the edited fields in the order given.
	EditRecord(title string, fields []types.Field) ([]types.Field, error)

	// ConfirmRetry asks whether to submit again after cause.
	ConfirmRetry(cause error) (bool, error)
}

// =============================================================================
// EDIT LOOP
// =============================================================================

// Choices lists the records of h in traversal order.
func Choices(h *pipeline.Hierarchy) []Choice {
	records := h.Records()
	out := make([]Choice, 0, len(records))
	for _, rec := range records {
		out = append(out, Choice{Title: choiceTitle(rec), TempID: rec.TempID()})
	}
	return out
}

func choiceTitle(rec *pipeline.Record) string {
	p := rec.Path()
	return fmt.Sprintf("%s / %s / %s: %s", p.Community, p.Tower, p.Unit, rec.Label())
}

// EditableFields returns the fields shown for rec: its own fields in column
// order, plus the name field when the record lacks it.
func EditableFields(p *pipeline.Pipeline, rec *pipeline.Record) []types.Field {
	row := p.Row(rec)
	fields := row.Fields()
	if !row.Has(pipeline.LabelField) {
		fields = append(fields, types.Field{Name: pipeline.LabelField})
	}
	return fields
}

// Changes returns the fields of after whose value differs from before.
// A field absent from before counts as changed only when after gives it a value.
func Changes(before types.Row, after []types.Field) map[string]string {
	updates := make(map[string]string)
	for _, f := range after {
		old, ok := before.Get(f.Name)
		if ok && old == f.Value {
			continue
		}
		if !ok && f.Value == "" {
			continue
		}
		updates[f.Name] = f.Value
	}
	return updates
}

// EditOne prompts for the fields of the record with tempID and applies the
// changed ones.
//
// RETURNS:
//   - The number of fields changed.
//   - An error from the prompt or the pipeline. The session is closed in
//     every case; a failure to close it (the pipeline was reloaded while the
//     form was open) is returned when nothing else failed first.
func EditOne(p *pipeline.Pipeline, tempID string, pr Prompter) (changed int, err error) {
	session, err := p.BeginEditByID(tempID)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := p.CloseEdit(session); closeErr != nil && err == nil {
			changed, err = 0, closeErr
		}
	}()

	rec := session.Record()
	edited, err := pr.EditRecord(choiceTitle(rec), EditableFields(p, rec))
	if err != nil {
		return 0, err
	}

	updates := Changes(p.Row(rec), edited)
	if len(updates) == 0 {
		return 0, nil
	}
	if err := p.ApplyEdit(session, updates); err != nil {
		return 0, err
	}
	return len(updates), nil
}

// Run loops over ChooseRecord and EditOne until the user stops.
//
// RETURNS:
//   - The number of records that received at least one change, also when
//     an error ends the loop early.
func Run(p *pipeline.Pipeline, pr Prompter, logger *log.Logger) (int, error) {
	if logger == nil {
		logger = log.Default()
	}

	edited := make(map[string]bool)
	for {
		id, err := pr.ChooseRecord(Choices(p.Hierarchy()))
		if err != nil {
			return len(edited), err
		}
		if id == doneValue {
			return len(edited), nil
		}

		n, err := EditOne(p, id, pr)
		if err != nil {
			return len(edited), err
		}
		if n > 0 {
			edited[id] = true
			rec, _ := p.Hierarchy().Record(id)
			logger.Info("Record updated", "record", id, "label", rec.Label(), "fields", n)
		}
	}
}

// =============================================================================
// HUH FORMS
// =============================================================================

// Forms prompts with huh.
type Forms struct {
	// Accessible switches huh to plain line prompts for screen readers and
	// dumb terminals.
	Accessible bool
}

// ChooseRecord shows a filterable list of records.
func (f Forms) ChooseRecord(choices []Choice) (string, error) {
	options := make([]huh.Option[string], 0, len(choices)+1)
	options = append(options, huh.NewOption("Terminar edición", doneValue))
	for _, c := range choices {
		options = append(options, huh.NewOption(c.Title, c.TempID))
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("¿Qué registro desea editar?").
				Options(options...).
				Filtering(true).
				Value(&choice),
		),
	).WithAccessible(f.Accessible)

	if err := f.run(form); err != nil {
		return "", err
	}
	return choice, nil
}

// EditRecord shows one input per field.
func (f Forms) EditRecord(title string, fields []types.Field) ([]types.Field, error) {
	values := make([]string, len(fields))
	inputs := make([]huh.Field, len(fields))
	for i, field := range fields {
		values[i] = field.Value
		inputs[i] = huh.NewInput().
			Title(field.Name).
			Value(&values[i])
	}

	form := huh.NewForm(
		huh.NewGroup(inputs...).Title(title),
	).WithAccessible(f.Accessible)

	if err := f.run(form); err != nil {
		return nil, err
	}

	out := make([]types.Field, len(fields))
	for i, field := range fields {
		out[i] = types.Field{Name: field.Name, Value: values[i]}
	}
	return out, nil
}

// ConfirmRetry asks whether to submit again.
func (f Forms) ConfirmRetry(cause error) (bool, error) {
	retry := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("No se pudo enviar la importación. ¿Reintentar?").
				Description(cause.Error()).
				Affirmative("Reintentar").
				Negative("Cancelar").
				Value(&retry),
		),
	).WithAccessible(f.Accessible)

	if err := f.run(form); err != nil {
		return false, err
	}
	return retry, nil
}

func (f Forms) run(form *huh.Form) error {
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("failed to get user input: %w", err)
	}
	return nil
}
