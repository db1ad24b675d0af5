package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/KaramelBytes/surveyboard/internal/aggregate"
	"github.com/KaramelBytes/surveyboard/internal/billboard"
	"github.com/KaramelBytes/surveyboard/internal/dataset"
	"github.com/KaramelBytes/surveyboard/internal/export"
	"github.com/KaramelBytes/surveyboard/internal/memo"
	"github.com/KaramelBytes/surveyboard/internal/table"
)

const billboardsState = "billboards"

// upload is one file kept in a session.
type upload struct {
	Name string
	Data []byte
}

const datasetPrefix = "dataset:"

func datasetState(id string) string { return datasetPrefix + id }

// uploadedIDs lists the session's uploaded datasets in catalog order.
func (s *Server) uploadedIDs(sess *memo.Session) []string {
	have := map[string]bool{}
	for _, name := range sess.Names(datasetPrefix) {
		have[strings.TrimPrefix(name, datasetPrefix)] = true
	}
	var ids []string
	for _, id := range s.opt.Catalog.IDs() {
		if have[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

type sessionHandler func(http.ResponseWriter, *http.Request, *memo.Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		sess, ok := s.sessions.Lookup(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("session %q not found", id))
			return
		}
		h(w, r, sess)
	}
}

type catalogEntry struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Views []string `json:"views"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	out := []catalogEntry{}
	for _, d := range s.opt.Catalog.Datasets {
		e := catalogEntry{ID: d.ID, Title: d.Title, Views: []string{}}
		for _, v := range d.Views {
			e.Views = append(e.Views, v.ID)
		}
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": sess.ID})
}

// normalized parses and normalizes an upload once per session and content.
func (s *Server) normalized(sess *memo.Session, up upload) (*table.Table, error) {
	key := memo.NewKey(fmt.Sprintf("normalize:%q", s.opt.Read.Delimiter), []byte(up.Name), up.Data)
	return memo.Get(sess.Cache, key, func() (*table.Table, error) {
		raw, err := table.Parse(up.Name, up.Data, s.opt.Read)
		if err != nil {
			return nil, err
		}
		return table.Normalize(raw), nil
	})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, int, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooBig.Limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("read body: %w", err)
	}
	return b, 0, nil
}

type datasetUploaded struct {
	Dataset string `json:"dataset"`
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

func (s *Server) handlePutDataset(w http.ResponseWriter, r *http.Request, sess *memo.Session) {
	d, ok := s.opt.Catalog.Get(mux.Vars(r)["dataset"])
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown dataset %q", mux.Vars(r)["dataset"]))
		return
	}
	b, status, err := s.readBody(w, r)
	if err != nil {
		writeError(w, status, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = d.ID + ".csv"
	}
	up := upload{Name: name, Data: b}
	t, err := s.normalized(sess, up)
	if err != nil {
		log.Printf("ERROR: session %s dataset %s: %v", sess.ID, d.ID, err)
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	sess.Put(datasetState(d.ID), up)
	writeJSON(w, http.StatusOK, datasetUploaded{Dataset: d.ID, Name: name, Rows: t.Len(), Columns: t.Width()})
}

func (s *Server) report(sess *memo.Session, d *dataset.Descriptor, up upload) (*dataset.Report, error) {
	t, err := s.normalized(sess, up)
	if err != nil {
		return nil, err
	}
	key := memo.NewKey("report:"+d.ID, []byte(up.Name), up.Data)
	return memo.Get(sess.Cache, key, func() (*dataset.Report, error) {
		return dataset.Analyze(d, t)
	})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request, sess *memo.Session) {
	d, ok := s.opt.Catalog.Get(mux.Vars(r)["dataset"])
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown dataset %q", mux.Vars(r)["dataset"]))
		return
	}
	v, ok := sess.Load(datasetState(d.ID))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no file uploaded for %s", d.Title))
		return
	}
	rep, err := s.report(sess, d, v.(upload))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleOverall(w http.ResponseWriter, r *http.Request, sess *memo.Session) {
	var ids []string
	for _, part := range strings.Split(r.URL.Query().Get("include"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	if len(ids) == 0 {
		ids = s.uploadedIDs(sess)
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("no datasets uploaded; upload one or pass include"))
		return
	}

	var (
		loaded   []dataset.Loaded
		warnings []string
		parts    [][]byte
	)
	for _, id := range ids {
		d, ok := s.opt.Catalog.Get(id)
		if !ok {
			warnings = append(warnings, "unknown dataset "+id)
			continue
		}
		v, ok := sess.Load(datasetState(d.ID))
		if !ok {
			warnings = append(warnings, "no file uploaded for "+d.Title)
			continue
		}
		up := v.(upload)
		t, err := s.normalized(sess, up)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", d.Title, err))
			continue
		}
		loaded = append(loaded, dataset.Loaded{ID: d.ID, Table: t})
		parts = append(parts, []byte(d.ID), []byte(up.Name), up.Data)
	}

	key := memo.NewKey("overall", parts...)
	rep, _ := memo.Get(sess.Cache, key, func() (*dataset.OverallReport, error) {
		return dataset.Overall(s.opt.Catalog, loaded, nil), nil
	})
	out := *rep
	out.Warnings = append(append([]string{}, warnings...), rep.Warnings...)
	writeJSON(w, http.StatusOK, out)
}

// merged runs the billboard pipeline over the session's current uploads.
func (s *Server) merged(sess *memo.Session) (*billboard.Result, bool) {
	v, ok := sess.Load(billboardsState)
	if !ok {
		return nil, false
	}
	inputs := v.([]billboard.Input)
	parts := make([][]byte, 0, 2*len(inputs))
	for _, in := range inputs {
		parts = append(parts, []byte(in.Name), in.Data)
	}
	key := memo.NewKey(fmt.Sprintf("billboard:%d:%q", s.opt.MaxFiles, s.opt.Read.Delimiter), parts...)
	res, _ := memo.Get(sess.Cache, key, func() (*billboard.Result, error) {
		return billboard.Merge(inputs, billboard.Options{MaxFiles: s.opt.MaxFiles, Read: s.opt.Read}), nil
	})
	return res, true
}

type billboardView struct {
	*billboard.Result
	Summary    billboard.Summary `json:"summary"`
	Gauge      billboard.Gauge   `json:"gauge"`
	Categories []string          `json:"categories"`
	Warnings   []string          `json:"warnings,omitempty"`
}

func newBillboardView(res *billboard.Result) billboardView {
	v := billboardView{
		Result:     res,
		Summary:    res.Summarize(),
		Gauge:      res.Gauge(),
		Categories: res.AvailableCategories(),
	}
	if res.Dropped > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("only the first %d files were processed; %d dropped", len(res.Processed)+len(res.Failures), res.Dropped))
	}
	if !res.HasMetrics && res.Merged.Len() > 0 {
		v.Warnings = append(v.Warnings, "potential_views and reach columns not found; reach_pct is empty")
	}
	return v
}

func (s *Server) handlePostBillboards(w http.ResponseWriter, r *http.Request, sess *memo.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opt.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, errors.New(`no "files" in upload`))
		return
	}
	inputs := make([]billboard.Input, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("open %s: %w", fh.Filename, err))
			return
		}
		b, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("read %s: %w", fh.Filename, err))
			return
		}
		inputs = append(inputs, billboard.Input{Name: fh.Filename, Data: b})
	}
	sess.Put(billboardsState, inputs)

	res, _ := s.merged(sess)
	for _, fe := range res.Failures {
		log.Printf("ERROR: session %s billboard %v", sess.ID, fe)
	}
	writeJSON(w, http.StatusOK, newBillboardView(res))
}

func (s *Server) requireMerged(w http.ResponseWriter, sess *memo.Session) (*billboard.Result, bool) {
	res, ok := s.merged(sess)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no billboard files uploaded"))
	}
	return res, ok
}

func (s *Server) handleGetBillboards(w http.ResponseWriter, r *http.Request, sess *memo.Session) {
	if res, ok := s.requireMerged(w, sess); ok {
		writeJSON(w, http.StatusOK, newBillboardView(res))
	}
}

func (s *Server) handleBillboardMap(w http.ResponseWriter, r *http.Request, sess *memo.Session) {
	if res, ok := s.requireMerged(w, sess); ok {
		writeJSON(w, http.StatusOK, res.Map())
	}
}

type categoryChart struct {
	Column string `json:"column"`
	aggregate.Result
}

func (s *Server) handleBillboardChart(w http.ResponseWriter, r *http.Request, sess *memo.Session) {
	res, ok := s.requireMerged(w, sess)
	if !ok {
		return
	}
	q := r.URL.Query()
	column := q.Get("column")
	switch kind := mux.Vars(r)["kind"]; kind {
	case "bar", "pie":
		if column == "" {
			avail := res.AvailableCategories()
			if len(avail) == 0 {
				writeJSON(w, http.StatusOK, categoryChart{Result: aggregate.NotFound("no categorical columns available")})
				return
			}
			column = avail[0]
		}
		top := s.opt.DisplayTopK
		if kind == "pie" {
			top = s.opt.PieTopK
		}
		out := res.CategoryCounts(column)
		out.Distribution = out.Distribution.Top(top)
		writeJSON(w, http.StatusOK, categoryChart{Column: column, Result: out})
	case "histogram":
		if column == "" {
			column = billboard.ColReachPct
		}
		bins, _ := strconv.Atoi(q.Get("bins"))
		writeJSON(w, http.StatusOK, res.Histogram(column, bins))
	case "gauge":
		writeJSON(w, http.StatusOK, res.Gauge())
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown chart %q (use bar, pie, histogram or gauge)", kind))
	}
}

func (s *Server) handleBillboardExport(w http.ResponseWriter, r *http.Request, sess *memo.Session) {
	res, ok := s.requireMerged(w, sess)
	if !ok {
		return
	}
	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		delim := s.opt.Read.Delimiter
		if delim == 0 {
			delim = ','
		}
		var buf bytes.Buffer
		if err := res.Merged.WriteCSV(&buf, delim); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DefaultCSVName))
		_, _ = w.Write(buf.Bytes())
	case "sqlite":
		b, err := sqliteBytes(r.Context(), res.Merged)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.sqlite3")
		w.Header().Set("Content-Disposition", `attachment; filename="merged_billboard_data.db"`)
		_, _ = w.Write(b)
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown format %q (use csv or sqlite)", format))
	}
}

func sqliteBytes(ctx context.Context, t *table.Table) ([]byte, error) {
	dir, err := os.MkdirTemp("", "surveyboard-export-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "export.db")
	if err := export.WriteSQLite(ctx, path, export.DefaultSQLiteTable, t, billboard.NumericColumns...); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
