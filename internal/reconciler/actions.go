package reconciler

import (
	"context"
	"fmt"
	"log/slog"
)

// RemoteAction is the local view of a backend action authorized for this
// device, with the nested script lookup flattened in.
type RemoteAction struct {
	ID             string
	ScriptID       string
	ScriptName     string
	ScriptCode     string
	ScriptLanguage string
	RequestedBy    string
	Status         string
}

// CheckRemoteActions returns the actions an operator has authorized for
// this device. A device that cannot resolve its identity (not registered
// yet, backend unreachable for the lookup) gets an empty result, not an
// error: a brand-new device has nothing pending. Items missing required
// fields are dropped from the result rather than failing the fetch.
func (r *Reconciler) CheckRemoteActions(ctx context.Context) ([]RemoteAction, error) {
	deviceID, err := r.ResolveDeviceID(ctx)
	if err != nil {
		slog.Debug("device identity unresolved, no remote actions", "error", err)
		return []RemoteAction{}, nil
	}

	rows, err := r.client.FetchAuthorizedActions(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("check remote actions: %w", err)
	}

	actions := make([]RemoteAction, 0, len(rows))
	for _, row := range rows {
		if row.ID == "" || row.ScriptID == "" || row.Status == "" || row.Script == nil {
			slog.Warn("dropping malformed remote action", "id", row.ID)
			continue
		}

		action := RemoteAction{
			ID:       row.ID,
			ScriptID: row.ScriptID,
			Status:   row.Status,
		}
		if row.Script.Name != nil {
			action.ScriptName = *row.Script.Name
		}
		if row.Script.Code != nil {
			action.ScriptCode = *row.Script.Code
		}
		if row.Script.Language != nil {
			action.ScriptLanguage = *row.Script.Language
		}
		if row.RequestedBy != nil {
			action.RequestedBy = *row.RequestedBy
		}
		actions = append(actions, action)
	}

	return actions, nil
}

// ReportActionResult patches the remote status of an action. Output and
// error text are truncated by the client before transmission; terminal
// statuses are stamped with a completion timestamp.
func (r *Reconciler) ReportActionResult(ctx context.Context, id, status, output, errText string) error {
	if err := r.client.UpdateAction(ctx, id, status, output, errText); err != nil {
		return fmt.Errorf("report action result: %w", err)
	}
	return nil
}
