package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/posso-labs/leadscout/internal/export"
	"github.com/posso-labs/leadscout/internal/model"
	"github.com/posso-labs/leadscout/internal/outreach"
	"github.com/posso-labs/leadscout/internal/quota"
	"github.com/posso-labs/leadscout/internal/scout"
	"github.com/posso-labs/leadscout/internal/workspace"
	"github.com/posso-labs/leadscout/pkg/gemini"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, err := gemini.NewClient(ctx, cfg.Gemini.Key,
			gemini.WithEnumerateModel(cfg.Gemini.EnumerateModel),
			gemini.WithSearchModel(cfg.Gemini.SearchModel),
			gemini.WithReasonModel(cfg.Gemini.ReasonModel),
			gemini.WithRateLimit(cfg.Gemini.RateLimit),
		)
		if err != nil {
			return err
		}

		tpl := outreach.DefaultTemplate()
		if cfg.Outreach.TemplatePath != "" {
			tpl, err = outreach.LoadTemplate(cfg.Outreach.TemplatePath)
			if err != nil {
				return err
			}
		}

		ws := workspace.New()
		guard := quota.NewGuard(cfg.Quota.WarnThreshold, cfg.Quota.HardCap)
		sc := scout.New(ws, svc, guard,
			scout.WithSearchDelay(cfg.Scout.SearchDelay()),
			scout.WithEnrichDelay(cfg.Scout.EnrichDelay()),
		)

		srvState := &server{ws: ws, sc: sc, guard: guard, tpl: tpl}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: srvState.router(cfg.Server.AllowedOrigins),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// server holds the session state behind the dashboard API. All state is
// in-memory and lives for the lifetime of the process.
type server struct {
	ws    *workspace.Workspace
	sc    *scout.Scouter
	guard *quota.Guard
	tpl   outreach.Template
}

func (s *server) router(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/regions", s.handleRegions)

		r.Post("/areas/discover", s.handleDiscover)
		r.Get("/areas", s.handleAreas)

		r.Post("/search", s.handleSearch)
		r.Post("/search/all", s.handleSearchAll)

		r.Post("/enrich/all", s.handleEnrichAll)
		r.Get("/enrich/progress", s.handleProgress)
		r.Post("/enrich/{id}", s.handleEnrich)

		r.Get("/leads", s.handleLeads)
		r.Delete("/leads/{id}", s.handleDeleteLead)
		r.Delete("/workspace", s.handleClear)

		r.Get("/export/leads.csv", s.handleExportCSV)
		r.Get("/export/leads.xlsx", s.handleExportXLSX)
		r.Get("/export/sms.csv", s.handleExportSMS)

		r.Post("/outreach/email", s.handleOutreachEmail)
		r.Get("/outreach/sms", s.handleOutreachSMS)
	})

	return r
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	progress := s.sc.Progress()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": s.ws.Status(),
		"region": s.sc.Region(),
		"quota": map[string]any{
			"used":    s.guard.Used(),
			"cap":     s.guard.Cap(),
			"warning": s.guard.Warning(),
		},
		"stats": s.ws.Stats(),
		"progress": map[string]int{
			"current": progress.Current,
			"total":   progress.Total,
		},
	})
}

func (s *server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"regions": model.QuickPickRegions})
}

func (s *server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Region string `json:"region"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Region == "" {
		writeError(w, http.StatusBadRequest, "region is required")
		return
	}

	if err := s.sc.DiscoverAreas(r.Context(), req.Region); err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"region": req.Region,
		"areas":  s.ws.Areas(),
	})
}

func (s *server) handleAreas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"areas": s.ws.Areas()})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
		Area string `json:"area"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Term == "" || req.Area == "" {
		writeError(w, http.StatusBadRequest, "term and area are required")
		return
	}
	if _, ok := s.ws.AreaStatus(req.Area); !ok {
		writeError(w, http.StatusNotFound, "unknown area")
		return
	}

	raw, added, err := s.sc.SearchArea(r.Context(), req.Term, req.Area)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"raw":   raw,
		"added": added,
		"stats": s.ws.Stats(),
	})
}

func (s *server) handleSearchAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Term == "" {
		writeError(w, http.StatusBadRequest, "term is required")
		return
	}

	added, err := s.sc.SearchAllAreas(r.Context(), req.Term)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"added": added,
		"stats": s.ws.Stats(),
	})
}

func (s *server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.ws.Lead(id); !ok {
		writeError(w, http.StatusNotFound, "unknown lead")
		return
	}

	if err := s.sc.EnrichOne(r.Context(), id); err != nil {
		writeAPIError(w, err)
		return
	}

	lead, _ := s.ws.Lead(id)
	writeJSON(w, http.StatusOK, map[string]any{"lead": lead})
}

func (s *server) handleEnrichAll(w http.ResponseWriter, r *http.Request) {
	if err := s.sc.EnrichAll(r.Context()); err != nil {
		writeAPIError(w, err)
		return
	}
	progress := s.sc.Progress()
	writeJSON(w, http.StatusOK, map[string]any{
		"progress": map[string]int{"current": progress.Current, "total": progress.Total},
		"stats":    s.ws.Stats(),
	})
}

func (s *server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	progress := s.sc.Progress()
	writeJSON(w, http.StatusOK, map[string]int{
		"current": progress.Current,
		"total":   progress.Total,
	})
}

func (s *server) handleLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leads": s.ws.Leads(filter),
		"stats": s.ws.Stats(),
	})
}

func (s *server) handleDeleteLead(w http.ResponseWriter, r *http.Request) {
	if !s.ws.RemoveLead(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "unknown lead")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleClear(w http.ResponseWriter, _ *http.Request) {
	s.ws.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteLeadsCSV(&buf, s.ws.Leads(workspace.FilterAll)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sendAttachment(w, &buf, "leads.csv", "text/csv")
}

func (s *server) handleExportXLSX(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteLeadsXLSX(&buf, s.ws.Leads(workspace.FilterAll)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sendAttachment(w, &buf, "leads.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (s *server) handleExportSMS(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteSMSCSV(&buf, s.ws.Leads(workspace.FilterAll)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sendAttachment(w, &buf, "sms.csv", "text/csv")
}

func (s *server) handleOutreachEmail(w http.ResponseWriter, r *http.Request) {
	tpl := s.tpl
	if r.ContentLength > 0 {
		var req struct {
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Subject != "" {
			tpl.Subject = req.Subject
		}
		if req.Body != "" {
			tpl.Body = req.Body
		}
	}

	leads := s.ws.Leads(workspace.FilterWithEmail)
	resp := map[string]any{
		"mailto":     outreach.MailtoURL(tpl, leads),
		"recipients": outreach.Recipients(leads),
	}
	if len(leads) > 0 {
		subject, body := tpl.Render(leads[0])
		resp["preview"] = map[string]string{"subject": subject, "body": body}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleOutreachSMS(w http.ResponseWriter, _ *http.Request) {
	numbers := outreach.MobileNumbers(s.ws.Leads(workspace.FilterAll))
	writeJSON(w, http.StatusOK, map[string]any{
		"numbers": numbers,
		"count":   len(numbers),
	})
}

func parseFilter(raw string) (workspace.Filter, error) {
	switch raw {
	case "", "all":
		return workspace.FilterAll, nil
	case "enriched":
		return workspace.FilterEnriched, nil
	case "with-email", "with_email":
		return workspace.FilterWithEmail, nil
	default:
		return workspace.FilterAll, fmt.Errorf("unknown filter %q", raw)
	}
}

// sendAttachment writes a download response, or 204 when there is nothing
// to export.
func sendAttachment(w http.ResponseWriter, buf *bytes.Buffer, filename, contentType string) {
	if buf.Len() == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAPIError maps workflow errors onto HTTP statuses: a held in-flight
// slot is a conflict, an exhausted quota is too-many-requests.
func writeAPIError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, scout.ErrBusy) || eris.Is(err, scout.ErrAreaBusy):
		writeError(w, http.StatusConflict, err.Error())
	case eris.Is(err, quota.ErrExhausted):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
