package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"tasks-api/domain"
	"tasks-api/storage"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store TaskStore, auth Authenticator, sink EventSink, logger *log.Logger) {
	e.Use(GzipRequestMiddleware())

	e.GET("/api/health-check/", healthCheck())
	e.POST("/api/create-task/", createTask(store, auth, logger))
	e.GET("/api/open-tasks/", listTasks(store, auth, logger, "/api/open-tasks/", TaskStore.ListOpen))
	e.GET("/api/closed-tasks/", listTasks(store, auth, logger, "/api/closed-tasks/", TaskStore.ListClosed))
	e.POST("/api/close-task/", closeTask(store, auth, logger))

	initEventSender(sink, logger)
}

func healthCheck() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthCheckResponse{Message: "OK"})
	}
}

func createTask(store TaskStore, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newRequestMetrics(ctx, logger, "/api/create-task/")
		c.SetRequest(c.Request().WithContext(spanCtx))
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		owner, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		var req createTaskRequest
		if decodeErr := decodeBody(c.Request().Body, &req); decodeErr != nil {
			metrics.SetErrorStage("decode_request")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}
		title := strings.TrimSpace(req.Title)
		if title == "" {
			metrics.SetErrorStage("invalid_title")
			err = c.String(http.StatusBadRequest, "title must not be empty")
			return err
		}

		task := domain.NewTask(uuid.NewString(), title, owner)

		storeStart := time.Now()
		addErr := store.Add(ctx, task)
		metrics.ObserveStore(time.Since(storeStart))
		if addErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(addErr)
			err = c.String(http.StatusInternalServerError, addErr.Error())
			return err
		}

		publishTaskEvent(domain.TaskEvent{
			TaskID:    task.ID,
			Owner:     owner,
			Type:      domain.EventTaskCreated,
			Timestamp: time.Now().UnixNano(),
		})

		metrics.SetTasksReturned(1)
		encodeStart := time.Now()
		err = c.JSON(http.StatusCreated, task)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func listTasks(store TaskStore, auth Authenticator, logger *log.Logger, route string, list func(TaskStore, context.Context, string) ([]domain.Task, error)) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, spanCtx := newRequestMetrics(c.Request().Context(), logger, route)
		c.SetRequest(c.Request().WithContext(spanCtx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		owner, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		storeStart := time.Now()
		tasks, listErr := list(store, spanCtx, owner)
		metrics.ObserveStore(time.Since(storeStart))
		if listErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(listErr)
			err = c.String(http.StatusInternalServerError, listErr.Error())
			return err
		}

		metrics.SetTasksReturned(len(tasks))
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, listTasksResponse{Results: tasks})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func closeTask(store TaskStore, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newRequestMetrics(ctx, logger, "/api/close-task/")
		c.SetRequest(c.Request().WithContext(spanCtx))
		ctx = spanCtx
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		owner, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		var req closeTaskRequest
		if decodeErr := decodeBody(c.Request().Body, &req); decodeErr != nil {
			metrics.SetErrorStage("decode_request")
			err = c.String(http.StatusBadRequest, "invalid body")
			return err
		}
		if _, parseErr := uuid.Parse(req.ID); parseErr != nil {
			metrics.SetErrorStage("invalid_id")
			err = c.String(http.StatusBadRequest, "invalid task id")
			return err
		}

		storeStart := time.Now()
		task, getErr := store.GetByID(ctx, req.ID, owner)
		if getErr != nil {
			metrics.ObserveStore(time.Since(storeStart))
			if errors.Is(getErr, storage.ErrNotFound) {
				metrics.SetErrorStage("not_found")
				err = c.String(http.StatusNotFound, "task not found")
				return err
			}
			metrics.SetErrorStage("storage")
			c.Logger().Error(getErr)
			err = c.String(http.StatusInternalServerError, getErr.Error())
			return err
		}

		// Read-modify-write; concurrent closes both land on CLOSED.
		task.Status = domain.StatusClosed
		updateErr := store.Update(ctx, task)
		metrics.ObserveStore(time.Since(storeStart))
		if updateErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(updateErr)
			err = c.String(http.StatusInternalServerError, updateErr.Error())
			return err
		}

		publishTaskEvent(domain.TaskEvent{
			TaskID:    task.ID,
			Owner:     owner,
			Type:      domain.EventTaskClosed,
			Timestamp: time.Now().UnixNano(),
		})

		metrics.SetTasksReturned(1)
		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, task)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func decodeBody(body io.Reader, dst any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(body, requestBodyMaxSize))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
