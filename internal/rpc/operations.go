package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zecrocks/zallet-go/internal/asyncop"
)

// recoverJob recovers each target in turn, checking for cancellation before
// every account.
func (s *Server) recoverJob(targets []recoverTarget) asyncop.Job {
	return func(ctx context.Context) (any, error) {
		out := make([]RecoveredAccount, 0, len(targets))
		for _, t := range targets {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			acct, err := s.wallet.RecoverAccount(t.name, t.fp, t.index)
			if err != nil {
				return nil, err
			}
			out = append(out, RecoveredAccount{
				AccountUUID:       acct.ID.String(),
				SeedFingerprint:   t.fp,
				ZIP32AccountIndex: t.index,
			})
		}
		return out, nil
	}
}

func (s *Server) handleListOperationIDs(params json.RawMessage) (interface{}, *Error) {
	p, rerr := bindParams(params, "status")
	if rerr != nil {
		return nil, rerr
	}
	filter, rerr := parseOptionalString(p[0], "status")
	if rerr != nil {
		return nil, rerr
	}
	ids := s.ops.List(filter)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out, nil
}

func (s *Server) handleGetOperationStatus(params json.RawMessage) (interface{}, *Error) {
	snaps, rerr := s.snapshots(params)
	if rerr != nil {
		return nil, rerr
	}
	out := make([]OperationStatus, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, operationStatus(snap))
	}
	return out, nil
}

// handleGetOperationResult reports finished operations only. Results are
// retained, so repeated calls return the same entries.
func (s *Server) handleGetOperationResult(params json.RawMessage) (interface{}, *Error) {
	snaps, rerr := s.snapshots(params)
	if rerr != nil {
		return nil, rerr
	}
	out := make([]OperationStatus, 0, len(snaps))
	for _, snap := range snaps {
		if snap.State.IsTerminal() {
			out = append(out, operationStatus(snap))
		}
	}
	return out, nil
}

func (s *Server) snapshots(params json.RawMessage) ([]asyncop.Snapshot, *Error) {
	p, rerr := bindParams(params, "operationid")
	if rerr != nil {
		return nil, rerr
	}
	ids, rerr := parseOperationIDs(p[0])
	if rerr != nil {
		return nil, rerr
	}
	if p[0] != nil && len(ids) == 0 {
		return []asyncop.Snapshot{}, nil
	}
	return s.ops.Snapshots(ids...), nil
}

func (s *Server) handleCancelOperation(params json.RawMessage) (interface{}, *Error) {
	p, rerr := bindParams(params, "operationid")
	if rerr != nil {
		return nil, rerr
	}
	if rerr := requireParam(p[0], "operationid"); rerr != nil {
		return nil, rerr
	}
	id, rerr := parseString(p[0], "operationid")
	if rerr != nil {
		return nil, rerr
	}
	state, ok := s.ops.Cancel(asyncop.ID(id))
	if !ok {
		return nil, invalidParameter(fmt.Sprintf("No operation with id %s", id))
	}
	return &CancelResult{OperationID: id, Status: state.String()}, nil
}

func operationStatus(snap asyncop.Snapshot) OperationStatus {
	st := OperationStatus{
		ID:           string(snap.ID),
		Status:       snap.State.String(),
		CreationTime: snap.CreatedAt.Unix(),
		Method:       snap.Method,
		Params:       snap.Params,
	}
	switch snap.State {
	case asyncop.Success:
		st.Result = snap.Result
	case asyncop.Failed:
		st.Error = toRPCError(snap.Err)
	}
	if d := snap.ExecutionTime(); d > 0 {
		secs := d.Seconds()
		st.ExecutionSecs = &secs
	}
	return st
}
