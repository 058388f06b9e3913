package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d-incubation/fleet-planner/pkg/config"
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

const exampleSpec = `{
	"workload_distribution": [[0.25, 0.5], [0.25, 0.25]],
	"total_request_rate": 16,
	"engine": "bnb",
	"gpu_info": {
		"A": {"cost": 1.01, "tputs": [[5, 1], [10, 5]]},
		"B": {"cost": 3.67, "tputs": [[20, 2], [50, 20]]}
	}
}`

const singleTypeSpec = `{
	"workload_distribution": [[0.25, 0.25], [0.25, 0.25]],
	"total_request_rate": 10,
	"slice_factor": 2,
	"engine": "bnb",
	"accelerators": [{"name": "L4", "cost": 2, "tputs": [[4, 4], [4, 4]]}]
}`

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](rec *httptest.ResponseRecorder) T {
	var v T
	ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), &v)).To(Succeed())
	return v
}

var _ = Describe("PlannerServer", func() {
	var handler http.Handler

	BeforeEach(func() {
		server, err := NewPlannerServer(solver.EngineOptions{})
		Expect(err).NotTo(HaveOccurred())
		handler = server.Handler()
	})

	Context("POST /plan", func() {
		It("plans the example scenario", func() {
			rec := do(handler, http.MethodPost, "/plan", exampleSpec)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get(RunIDHeader)).NotTo(BeEmpty())

			resp := decode[PlanResponse](rec)
			Expect(resp.RunID).To(Equal(rec.Header().Get(RunIDHeader)))
			Expect(resp.Fleet).To(Equal(map[string]int{"A": 10, "B": 0}))
			Expect(resp.Cost).To(BeNumerically("~", 10.1, 1e-9))
			Expect(resp.Engine).To(Equal("bnb"))
			Expect(resp.Baselines).To(BeEmpty())
		})

		It("includes homogeneous baselines on request", func() {
			rec := do(handler, http.MethodPost, "/plan?compare=true", exampleSpec)
			Expect(rec.Code).To(Equal(http.StatusOK))
			resp := decode[PlanResponse](rec)
			Expect(resp.Baselines).To(HaveLen(2))
			Expect(resp.Baselines[1].Type).To(Equal("B"))
			Expect(resp.Baselines[1].Count).To(Equal(5))
		})

		It("rejects zero throughput with field details", func() {
			body := strings.Replace(exampleSpec, "[[5, 1], [10, 5]]", "[[5, 0], [10, 5]]", 1)
			rec := do(handler, http.MethodPost, "/plan", body)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			resp := decode[ErrorResponse](rec)
			Expect(resp.Details).To(HaveLen(1))
			Expect(resp.Details[0].Field).To(Equal("accelerators[A].tputs[0][1]"))
		})

		It("rejects unknown fields and malformed bodies", func() {
			rec := do(handler, http.MethodPost, "/plan", `{"overall_rate": 3}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do(handler, http.MethodPost, "/plan", `{"workload_distribution": `)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unknown engine", func() {
			body := strings.Replace(exampleSpec, `"engine": "bnb"`, `"engine": "gurobi"`, 1)
			rec := do(handler, http.MethodPost, "/plan", body)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode[ErrorResponse](rec).Details[0].Field).To(Equal("engine"))
		})

		It("reports a missing engine binary as a gateway failure", func() {
			server, err := NewPlannerServer(solver.EngineOptions{CBCPath: "/nonexistent/cbc"})
			Expect(err).NotTo(HaveOccurred())
			body := strings.Replace(exampleSpec, `"engine": "bnb"`, `"engine": "cbc"`, 1)

			rec := do(server.Handler(), http.MethodPost, "/plan", body)
			Expect(rec.Code).To(Equal(http.StatusBadGateway))
			Expect(decode[ErrorResponse](rec).Message).To(ContainSubstring("cbc"))
		})

		It("reports an unsolved model as unprocessable", func() {
			// the root relaxation needs 2.5 instances, one node cannot settle it
			server, err := NewPlannerServer(solver.EngineOptions{NodeLimit: 1})
			Expect(err).NotTo(HaveOccurred())

			rec := do(server.Handler(), http.MethodPost, "/plan", singleTypeSpec)
			Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
			Expect(decode[ErrorResponse](rec).Message).To(ContainSubstring("no feasible allocation"))
		})
	})

	Context("solve time limit", func() {
		It("applies the default to requests that set none", func() {
			spec, err := config.ParseSpec([]byte(exampleSpec))
			Expect(err).NotTo(HaveOccurred())

			mgr, err := (&BaseServer{}).newManager(spec)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.Optimizer().String()).To(ContainSubstring(fmt.Sprintf("timeout=%v", time.Duration(DefaultTimeLimitSeconds)*time.Second)))
			Expect(spec.TimeLimitSeconds).To(BeZero())
		})

		It("keeps the limit a request sets", func() {
			spec, err := config.ParseSpec([]byte(exampleSpec))
			Expect(err).NotTo(HaveOccurred())
			spec.TimeLimitSeconds = 5

			mgr, err := (&BaseServer{}).newManager(spec)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.Optimizer().String()).To(ContainSubstring("timeout=5s"))
		})
	})

	Context("POST /sweep", func() {
		It("returns scenarios in rate order", func() {
			body := `{"spec": ` + exampleSpec + `, "rates": [32, 16, -1]}`
			rec := do(handler, http.MethodPost, "/sweep", body)
			Expect(rec.Code).To(Equal(http.StatusOK))

			resp := decode[SweepResponse](rec)
			Expect(resp.Scenarios).To(HaveLen(3))
			Expect(resp.Scenarios[0].Rate).To(Equal(32.0))
			Expect(resp.Scenarios[0].Fleet).To(Equal(map[string]int{"A": 16, "B": 1}))
			Expect(*resp.Scenarios[1].Cost).To(BeNumerically("~", 10.1, 1e-9))
			Expect(resp.Scenarios[2].Error).To(ContainSubstring("total_request_rate"))
			Expect(resp.Scenarios[2].Cost).To(BeNil())
		})

		It("requires at least one rate", func() {
			rec := do(handler, http.MethodPost, "/sweep", `{"spec": `+exampleSpec+`, "rates": []}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an invalid spec", func() {
			rec := do(handler, http.MethodPost, "/sweep", `{"spec": {"total_request_rate": 1}, "rates": [1]}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode[ErrorResponse](rec).Details).NotTo(BeEmpty())
		})
	})

	Context("POST /compare", func() {
		It("returns one baseline per accelerator type", func() {
			rec := do(handler, http.MethodPost, "/compare", exampleSpec)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"count": 10`))
		})
	})

	Context("observability", func() {
		It("reports health", func() {
			rec := do(handler, http.MethodGet, "/healthz", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("ok"))
		})

		It("exposes planning metrics", func() {
			Expect(do(handler, http.MethodPost, "/plan", exampleSpec).Code).To(Equal(http.StatusOK))
			rec := do(handler, http.MethodGet, "/metrics", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("fleet_planner_runs_total"))
			Expect(rec.Body.String()).To(ContainSubstring(`accelerator_type="A"`))
		})
	})
})

var _ = Describe("StatusCode", func() {
	It("maps success to 200", func() {
		Expect(StatusCode(nil)).To(Equal(http.StatusOK))
	})

	It("maps errors by kind", func() {
		Expect(StatusCode(bytes.ErrTooLarge)).To(Equal(http.StatusBadGateway))
		Expect(StatusCode(&solver.NoFeasibleError{})).To(Equal(http.StatusUnprocessableEntity))
	})
})
