package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/job-application-agent/internal/models"
	"alfredoptarigan/job-application-agent/internal/protocol"
	"alfredoptarigan/job-application-agent/internal/repositories"
)

type ResultHandler struct {
	taskRepo repositories.TaskRepository
}

func NewResultHandler(taskRepo repositories.TaskRepository) *ResultHandler {
	return &ResultHandler{
		taskRepo: taskRepo,
	}
}

func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "task")
	if err != nil {
		return err
	}

	task, err := h.taskRepo.FindByID(id)
	if err != nil {
		return lookupError(c, err, "task")
	}

	response := models.TaskResultResponse{
		ID:        task.ID.String(),
		SessionID: task.SessionID.String(),
		Kind:      string(task.Kind),
		Status:    string(task.Status),
		Attempts:  task.Attempts,
	}

	switch task.Status {
	case models.StatusCompleted:
		response.Result = resultFromTask(task)
	case models.StatusFailed:
		response.ErrorMessage = task.ErrorMessage
	}

	return c.JSON(response)
}

// resultFromTask rebuilds the stored result of a completed task.
func resultFromTask(task *models.Task) *protocol.Result {
	res := &protocol.Result{
		Kind:         protocol.ResultKind(deref(task.ResultKind)),
		Analysis:     deref(task.Analysis),
		Modification: deref(task.Modification),
		Text:         deref(task.Text),
	}
	if task.FailureReason != nil {
		res.Failure = &protocol.Failure{
			Reason: protocol.FailureReason(*task.FailureReason),
			Detail: deref(task.FailureDetail),
		}
	}
	return res
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
