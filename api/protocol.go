package api

import "tasks-api/domain"

const requestBodyMaxSize = 64 * 1024 // 64 KiB

// POST /api/create-task/ request body
type createTaskRequest struct {
	Title string `json:"title"`
}

// POST /api/close-task/ request body
type closeTaskRequest struct {
	ID string `json:"id"`
}

// GET /api/open-tasks/ and /api/closed-tasks/ response body
type listTasksResponse struct {
	Results []domain.Task `json:"results"`
}

// GET /api/health-check/ response body
type healthCheckResponse struct {
	Message string `json:"message"`
}
