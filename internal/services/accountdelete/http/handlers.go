// Package http provides http transport for account deletion and its queue callback
package http

import (
	stdhttp "net/http"

	"reaper/internal/modkit/httpkit"
	"reaper/internal/platform/logger"
	"reaper/internal/services/accountdelete/domain"
	svc "reaper/internal/services/accountdelete/service"
)

// TaskNameHeader carries the queue task name on callback deliveries
const TaskNameHeader = "X-CloudTasks-TaskName"

// Register mounts the public deletion route; the module mounts it under /accounts
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.DeleteInput](r, "/delete", h.deleteAccount)
}

// RegisterCallback mounts the route the task queue delivers deletion tasks to, below /v{apiVersion}
func RegisterCallback(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.DeleteTask](r, "/cloud-tasks/accounts/delete", h.deleteTask)
}

type handlers struct{ svc svc.Service }

// @Summary Delete an account
// @Description user requested deletions run inline and answer 204; every other reason is queued and answers 202
// @Tags accounts
// @Accept json
// @Produce json
// @Param payload body domain.DeleteInput true "Account and reason"
// @Success 202 {object} domain.EnqueuedTask "queued"
// @Success 204 "deleted"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Failure 404 {object} httpkit.Envelope "unknown email"
// @Router /accounts/delete [post]
func (h *handlers) deleteAccount(r *stdhttp.Request, in domain.DeleteInput) (any, error) {
	ctx := r.Context()
	req, err := h.svc.Resolve(ctx, in.Request())
	if err != nil {
		return nil, err
	}
	if req.Reason().UserRequested() {
		if err := h.svc.QuickDelete(ctx, req); err != nil {
			return nil, err
		}
		return httpkit.NoContent(), nil
	}
	task, err := h.svc.Enqueue(ctx, req)
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(task), nil
}

// any non 2xx answer makes the queue redeliver
func (h *handlers) deleteTask(r *stdhttp.Request, task domain.DeleteTask) (any, error) {
	ctx := logger.WithTask(r.Context(), r.Header.Get(TaskNameHeader))
	if err := h.svc.HandleDeleteTask(ctx, task); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}
