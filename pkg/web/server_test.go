package web

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/edp1096/toy-ybus/pkg/circuit"
	"github.com/edp1096/toy-ybus/pkg/device"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	ckt, err := circuit.New("two bus")
	assert.NilError(t, err)
	assert.NilError(t, ckt.AddBus("One", 15))
	assert.NilError(t, ckt.AddBus("Two", 345))
	assert.NilError(t, ckt.AddBus("Three", 345))
	assert.NilError(t, ckt.AddTransformer("T1", "One", "Two", device.Params{R: 0.0015, X: 0.02}))

	s := NewServer()
	s.SetCircuit(ckt)
	return s
}

func get(t *testing.T, s *Server, path string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestYBus(t *testing.T) {
	s := testServer(t)

	var resp YBusResponse
	assert.Equal(t, get(t, s, "/api/ybus", &resp), http.StatusOK)
	assert.Equal(t, resp.Circuit, "two bus")
	assert.DeepEqual(t, resp.Buses, []string{"One", "Two", "Three"})
	assert.Assert(t, is.Len(resp.Matrix, 3))

	ys := 1 / complex(0.0015, 0.02)
	assert.Assert(t, math.Abs(resp.Matrix[0][0].Re-real(ys)) < 1e-9)
	assert.Assert(t, math.Abs(resp.Matrix[0][1].Im+imag(ys)) < 1e-9)
	assert.Equal(t, resp.Matrix[2][2], Complex{})
}

func TestEntry(t *testing.T) {
	s := testServer(t)

	var resp EntryResponse
	assert.Equal(t, get(t, s, "/api/ybus/Two/One", &resp), http.StatusOK)
	assert.Equal(t, resp.Row, "Two")
	assert.Assert(t, resp.Value.Re < 0)

	var errResp errorResponse
	assert.Equal(t, get(t, s, "/api/ybus/Two/Nowhere", &errResp), http.StatusNotFound)
	assert.Assert(t, is.Contains(errResp.Error, "unknown bus"))
}

func TestBusesAndBranches(t *testing.T) {
	s := testServer(t)

	var buses []BusResponse
	assert.Equal(t, get(t, s, "/api/buses", &buses), http.StatusOK)
	assert.Assert(t, is.Len(buses, 3))
	assert.DeepEqual(t, buses[1], BusResponse{Name: "Two", Index: 2, NominalKV: 345, Voltage: Complex{Re: 345}})

	var branches []BranchResponse
	assert.Equal(t, get(t, s, "/api/branches", &branches), http.StatusOK)
	assert.DeepEqual(t, branches, []BranchResponse{
		{Kind: "transformer", Name: "T1", Bus1: "One", Bus2: "Two", R: 0.0015, X: 0.02},
	})
}

func TestIslands(t *testing.T) {
	s := testServer(t)

	var resp struct {
		Islands  [][]string `json:"islands"`
		Isolated []string   `json:"isolated"`
	}
	assert.Equal(t, get(t, s, "/api/islands", &resp), http.StatusOK)
	assert.DeepEqual(t, resp.Islands, [][]string{{"One", "Two"}, {"Three"}})
	assert.DeepEqual(t, resp.Isolated, []string{"Three"})
}

func TestHealthAndEmpty(t *testing.T) {
	s := NewServer()

	var health map[string]string
	assert.Equal(t, get(t, s, "/healthz", &health), http.StatusOK)
	assert.Equal(t, health["ybus"], "empty")

	assert.Equal(t, get(t, s, "/api/ybus", nil), http.StatusServiceUnavailable)

	s = testServer(t)
	get(t, s, "/api/ybus", nil)
	assert.Equal(t, get(t, s, "/healthz", &health), http.StatusOK)
	assert.Equal(t, health["ybus"], "valid")
}
