package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/edp1096/toy-ybus/pkg/circuit"
	"github.com/edp1096/toy-ybus/pkg/logging"
	"github.com/edp1096/toy-ybus/pkg/neterr"
	"github.com/edp1096/toy-ybus/pkg/topology"
)

// Complex is the JSON form of an admittance entry.
type Complex struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

func toComplex(v complex128) Complex {
	return Complex{Re: real(v), Im: imag(v)}
}

type YBusResponse struct {
	ID      string      `json:"id"`
	Circuit string      `json:"circuit"`
	BuiltAt time.Time   `json:"built_at"`
	Buses   []string    `json:"buses"`
	Matrix  [][]Complex `json:"matrix"`
}

func NewYBusResponse(y *circuit.YBus) YBusResponse {
	rows := y.Rows()
	out := make([][]Complex, len(rows))
	for i, row := range rows {
		out[i] = make([]Complex, len(row))
		for j, v := range row {
			out[i][j] = toComplex(v)
		}
	}

	return YBusResponse{
		ID:      y.ID.String(),
		Circuit: y.Circuit,
		BuiltAt: y.BuiltAt,
		Buses:   y.Names(),
		Matrix:  out,
	}
}

type EntryResponse struct {
	Row   string  `json:"row"`
	Col   string  `json:"col"`
	Value Complex `json:"value"`
}

type BusResponse struct {
	Name      string  `json:"name"`
	Index     int     `json:"index"`
	NominalKV float64 `json:"nominal_kv"`
	Voltage   Complex `json:"voltage"`
}

type BranchResponse struct {
	Kind string  `json:"kind"`
	Name string  `json:"name"`
	Bus1 string  `json:"bus1"`
	Bus2 string  `json:"bus2"`
	R    float64 `json:"r"`
	X    float64 `json:"x"`
	G    float64 `json:"g"`
	B    float64 `json:"b"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the admittance matrix of the current circuit. The circuit
// can be swapped at any time; requests see either the old or the new one.
type Server struct {
	router  *mux.Router
	circuit atomic.Pointer[circuit.Circuit]
}

func NewServer() *Server {
	s := &Server{router: mux.NewRouter()}
	s.setupRoutes()
	return s
}

func (s *Server) SetCircuit(c *circuit.Circuit) {
	s.circuit.Store(c)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/ybus", s.handleYBus).Methods("GET")
	s.router.HandleFunc("/api/ybus/{row}/{col}", s.handleEntry).Methods("GET")
	s.router.HandleFunc("/api/buses", s.handleBuses).Methods("GET")
	s.router.HandleFunc("/api/branches", s.handleBranches).Methods("GET")
	s.router.HandleFunc("/api/islands", s.handleIslands).Methods("GET")
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logging.Info("serving admittance matrix", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) current(w http.ResponseWriter) (*circuit.Circuit, bool) {
	c := s.circuit.Load()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no circuit loaded"))
		return nil, false
	}
	return c, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := "empty"
	if c := s.circuit.Load(); c != nil {
		status = c.State().String()
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "ybus": status})
}

func (s *Server) handleYBus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.current(w)
	if !ok {
		return
	}
	y, err := c.Ensure()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NewYBusResponse(y))
}

func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	c, ok := s.current(w)
	if !ok {
		return
	}
	y, err := c.Ensure()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	vars := mux.Vars(r)
	v, err := y.At(vars["row"], vars["col"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, neterr.ErrUnknownBus) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EntryResponse{Row: vars["row"], Col: vars["col"], Value: toComplex(v)})
}

func (s *Server) handleBuses(w http.ResponseWriter, r *http.Request) {
	c, ok := s.current(w)
	if !ok {
		return
	}

	buses := c.Buses()
	out := make([]BusResponse, 0, len(buses))
	for _, b := range buses {
		out = append(out, BusResponse{
			Name:      b.Name(),
			Index:     b.Index(),
			NominalKV: b.NominalKV(),
			Voltage:   toComplex(b.Voltage()),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	c, ok := s.current(w)
	if !ok {
		return
	}

	branches := c.Branches()
	out := make([]BranchResponse, 0, len(branches))
	for _, br := range branches {
		terminals := br.GetNodeNames()
		p := br.Params()
		out = append(out, BranchResponse{
			Kind: br.GetKind().String(),
			Name: br.GetName(),
			Bus1: terminals[0],
			Bus2: terminals[1],
			R:    p.R,
			X:    p.X,
			G:    p.G,
			B:    p.B,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleIslands(w http.ResponseWriter, r *http.Request) {
	c, ok := s.current(w)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"islands":  topology.Islands(c),
		"isolated": topology.Isolated(c),
	})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
