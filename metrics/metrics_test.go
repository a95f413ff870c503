package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/mudler/m2context/core/conversation"
	. "github.com/mudler/m2context/metrics"
	dto "github.com/prometheus/client_model/go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// counterValue sums the counters of the families whose name starts with prefix.
func counterValue(families []*dto.MetricFamily, prefix string) float64 {
	total := 0.0
	for _, f := range families {
		if !strings.HasPrefix(f.GetName(), prefix) {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

var _ = Describe("Metrics", func() {
	var m *Metrics

	BeforeEach(func() {
		var err error
		m, err = SetupMetrics()
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(func() {
			Expect(m.Shutdown(context.Background())).To(Succeed())
		})
	})

	It("counts turns, tool calls and tokens of a conversation", func() {
		c, err := conversation.New(nil, []string{"python"}, conversation.WithRecorder(m))
		Expect(err).ToNot(HaveOccurred())

		c.AppendOutput(`<minimax:tool_call><invoke name="python"><parameter name="code">1</parameter></invoke>` +
			`<invoke name="search"><parameter name="q">go`)
		_, err = c.FinalizeTurn()
		Expect(err).ToNot(HaveOccurred())
		c.AppendOutput("done")
		_, err = c.FinalizeTurn()
		Expect(err).ToNot(HaveOccurred())
		Expect(c.UpdateTokenCounts(12, 5)).To(Succeed())

		families, err := m.Gather()
		Expect(err).ToNot(HaveOccurred())
		Expect(counterValue(families, "m2context_turns")).To(Equal(2.0))
		Expect(counterValue(families, "m2context_incomplete_turns")).To(Equal(1.0))
		Expect(counterValue(families, "m2context_tool_calls")).To(Equal(2.0))
		Expect(counterValue(families, "m2context_tokens")).To(Equal(17.0))
	})

	It("serves the registry over http", func() {
		c, err := conversation.New(nil, nil, conversation.WithRecorder(m))
		Expect(err).ToNot(HaveOccurred())
		c.AppendOutput("hi")
		_, err = c.FinalizeTurn()
		Expect(err).ToNot(HaveOccurred())

		srv := httptest.NewServer(m.Handler())
		DeferCleanup(srv.Close)

		resp, err := srv.Client().Get(srv.URL)
		Expect(err).ToNot(HaveOccurred())
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("m2context_turns"))
	})
})
