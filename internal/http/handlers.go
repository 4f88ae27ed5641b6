package http

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"nostrlytics/internal/nostr"
	"nostrlytics/internal/timeframe"
	"nostrlytics/internal/viewer"
)

const dayLayout = "2006-01-02"

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	dbStatus := "ok"
	if s.keystore != nil {
		if err := s.keystore.Ping(); err != nil {
			dbStatus = "error"
			s.logger.Error("keystore ping failed", slog.Any("error", err))
		}
	}

	health := healthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		DBStatus:  dbStatus,
	}
	if dbStatus != "ok" {
		health.Status = "degraded"
	}
	return c.JSON(health)
}

func (s *Server) handleReport(c *fiber.Ctx) error {
	state := s.controller.State()
	status := http.StatusOK
	if state == viewer.StateLoading {
		status = http.StatusAccepted
	}

	return c.Status(status).JSON(fiber.Map{
		"state":  state,
		"report": s.controller.Report(),
	})
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(s.controller.Report().ExportRows); err != nil {
		return fmt.Errorf("writing export csv: %w", err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", s.cfg.AppName+"-export.csv"))
	return c.Send(buf.Bytes())
}

type statusResponse struct {
	State   viewer.State  `json:"state"`
	Account *string       `json:"account"`
	Range   *rangePayload `json:"range"`
}

type rangePayload struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := statusResponse{State: s.controller.State()}

	if conn, ok := s.controller.Connection(); ok {
		label := nostr.TrimPublicKey(conn.PublicKey, 12)
		resp.Account = &label
	}
	if r, ok := s.controller.Range(); ok {
		resp.Range = &rangePayload{
			Start: r.Start.Format(dayLayout),
			End:   r.End.Format(dayLayout),
		}
	}

	return c.JSON(resp)
}

func (s *Server) handleSetRange(c *fiber.Ctx) error {
	var payload rangePayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	start, err := time.ParseInLocation(dayLayout, payload.Start, s.loc)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid start date")
	}
	end, err := time.ParseInLocation(dayLayout, payload.End, s.loc)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid end date")
	}

	r, err := timeframe.NewDateRange(start, end)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := s.controller.SetDateRange(s.baseCtx, r); err != nil {
		return fmt.Errorf("setting date range: %w", err)
	}

	return c.JSON(fiber.Map{"state": s.controller.State()})
}

func (s *Server) handleSetAccount(c *fiber.Ctx) error {
	var conn nostr.AccountConnection
	if err := c.BodyParser(&conn); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.controller.SetConnection(s.baseCtx, conn); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if s.keystore != nil {
		if err := s.keystore.Save(conn); err != nil {
			return fmt.Errorf("persisting connection: %w", err)
		}
	}

	s.logger.Info("account connected",
		slog.String("account", nostr.TrimPublicKey(conn.PublicKey, 12)))

	return c.JSON(fiber.Map{"state": s.controller.State()})
}

func (s *Server) handleClearAccount(c *fiber.Ctx) error {
	s.controller.ClearConnection()

	if s.keystore != nil {
		if err := s.keystore.Clear(); err != nil {
			return fmt.Errorf("clearing stored connection: %w", err)
		}
	}

	s.logger.Info("account disconnected")

	return c.JSON(fiber.Map{"state": s.controller.State()})
}
