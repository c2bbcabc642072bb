package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/halcyon-ai/agent-console/internal/model"
	"github.com/halcyon-ai/agent-console/internal/tools"
	"github.com/halcyon-ai/agent-console/pkg/logger"
	"github.com/halcyon-ai/agent-console/pkg/metrics"
)

// OperationService audits tool invocations and drives the approval flow for
// the ones that need permission.
type OperationService struct {
	registry *tools.Registry
	logger   *logger.Logger

	// In-memory storage for operations (would be replaced with a database in production)
	mu     sync.RWMutex
	ops    map[int64]*model.OperationLog
	nextID int64
}

// NewOperationService creates a new operation service.
func NewOperationService(registry *tools.Registry, log *logger.Logger) *OperationService {
	return &OperationService{
		registry: registry,
		logger:   log,
		ops:      make(map[int64]*model.OperationLog),
	}
}

// LogParams describes one operation to record.
type LogParams struct {
	UserID             string
	SessionID          string
	ToolName           string
	ToolSource         string
	Input              json.RawMessage
	RequiresPermission bool
	Preview            string
}

// Log records a new operation. Operations needing permission start pending;
// the rest start approved and are completed by the caller after execution.
func (s *OperationService) Log(ctx context.Context, p LogParams) *model.OperationLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	status := model.OperationApproved
	if p.RequiresPermission {
		status = model.OperationPending
	}
	source := p.ToolSource
	if source == "" {
		source = "builtin"
	}

	op := &model.OperationLog{
		ID:                 s.nextID,
		UserID:             p.UserID,
		SessionID:          p.SessionID,
		OperationType:      tools.OperationType(p.ToolName),
		ToolName:           p.ToolName,
		ToolSource:         source,
		Input:              p.Input,
		Status:             status,
		RequiresPermission: p.RequiresPermission,
		Preview:            p.Preview,
		CreatedAt:          time.Now(),
	}
	s.ops[op.ID] = op

	return op
}

// Get retrieves one operation scoped to a user.
func (s *OperationService) Get(ctx context.Context, userID string, id int64) (*model.OperationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, exists := s.ops[id]
	if !exists || op.UserID != userID {
		return nil, fmt.Errorf("operation not found")
	}
	return op, nil
}

// Approve grants permission for a pending operation and executes it. The
// execution result is returned to the caller and recorded on the log entry.
func (s *OperationService) Approve(ctx context.Context, userID string, id int64) (*model.ApproveResponse, error) {
	s.mu.Lock()
	op, exists := s.ops[id]
	if !exists || op.UserID != userID {
		s.mu.Unlock()
		return nil, fmt.Errorf("operation not found")
	}
	if op.Status != model.OperationPending {
		s.mu.Unlock()
		return nil, fmt.Errorf("operation is %s, not pending", op.Status)
	}

	granted := true
	op.PermissionGranted = &granted
	op.Status = model.OperationApproved
	toolName, input := op.ToolName, op.Input
	s.mu.Unlock()

	metrics.RecordPermissionDecision("approved")
	s.logger.Info("operation approved", "operation_id", id, "tool", toolName, "user_id", userID)

	result := s.registry.Execute(tools.WithUser(ctx, userID), toolName, input)
	s.complete(id, result)

	resp := &model.ApproveResponse{Success: result.Success, Result: result}
	if !result.Success {
		resp.Error = result.Error
	}
	return resp, nil
}

// defaultRejectReason is recorded when the user declines without giving one.
const defaultRejectReason = "Rejected by user"

// Reject denies permission for a pending operation. Rejection is terminal:
// the operation is never executed. An empty reason falls back to a default so
// a rejected entry always records why.
func (s *OperationService) Reject(ctx context.Context, userID string, id int64, reason string) error {
	if reason == "" {
		reason = defaultRejectReason
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	op, exists := s.ops[id]
	if !exists || op.UserID != userID {
		return fmt.Errorf("operation not found")
	}
	if op.Status != model.OperationPending {
		return fmt.Errorf("operation is %s, not pending", op.Status)
	}

	granted := false
	now := time.Now()
	op.PermissionGranted = &granted
	op.Status = model.OperationRejected
	op.ErrorMessage = reason
	op.CompletedAt = &now

	metrics.RecordPermissionDecision("rejected")
	s.logger.Info("operation rejected", "operation_id", id, "user_id", userID, "reason", reason)

	return nil
}

// Complete records the outcome of an already-approved operation.
func (s *OperationService) Complete(id int64, result *model.ToolResult) {
	s.complete(id, result)
}

func (s *OperationService) complete(id int64, result *model.ToolResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, exists := s.ops[id]
	if !exists {
		return
	}

	now := time.Now()
	op.CompletedAt = &now
	if out, err := json.Marshal(result); err == nil {
		op.Output = out
	}
	if result.Success {
		op.Status = model.OperationCompleted
		metrics.RecordToolExecution(op.ToolName, "success")
	} else {
		op.Status = model.OperationFailed
		op.ErrorMessage = result.Error
		metrics.RecordToolExecution(op.ToolName, "failure")
	}
}

// List returns a user's operations, newest first.
func (s *OperationService) List(ctx context.Context, userID string, limit int) []*model.OperationLog {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.OperationLog
	for _, op := range s.ops {
		if op.UserID == userID {
			out = append(out, op)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Pending returns a user's operations still awaiting a decision, oldest first.
func (s *OperationService) Pending(ctx context.Context, userID string) []*model.OperationLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.OperationLog
	for _, op := range s.ops {
		if op.UserID == userID && op.Status == model.OperationPending {
			out = append(out, op)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats aggregates a user's operations by status.
func (s *OperationService) Stats(ctx context.Context, userID string) *model.OperationStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.OperationStats{ByStatus: make(map[string]int)}
	for _, op := range s.ops {
		if op.UserID == userID {
			stats.Total++
			stats.ByStatus[string(op.Status)]++
		}
	}
	return stats
}
