package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewMatch(t *testing.T) {
	Convey("Match metrics register on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewMatch(reg)

		m.Sessions.WithLabelValues("SETTLED").Inc()
		m.Settlements.WithLabelValues("home").Inc()
		m.PotCents.Add(1000)

		So(testutil.ToFloat64(m.Sessions.WithLabelValues("SETTLED")), ShouldEqual, 1)
		So(testutil.ToFloat64(m.PotCents), ShouldEqual, 1000)

		Convey("Registering twice on the same registry panics", func() {
			So(func() { NewMatch(reg) }, ShouldPanic)
		})
	})
}
