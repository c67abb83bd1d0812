package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordJoin(t *testing.T) {
	before := testutil.ToFloat64(joinsTotal.WithLabelValues("joined"))
	RecordJoin("joined")
	RecordJoin("joined")
	if got := testutil.ToFloat64(joinsTotal.WithLabelValues("joined")); got != before+2 {
		t.Errorf("joins_total{joined} = %v, want %v", got, before+2)
	}
}

func TestRecordCycleAdvance(t *testing.T) {
	RecordCycleAdvance("started")
	if got := testutil.ToFloat64(cycleAdvances.WithLabelValues("started")); got < 1 {
		t.Errorf("cycle_advances_total{started} = %v, want >= 1", got)
	}
}

func TestObserveRPC(t *testing.T) {
	ObserveRPC("/halaqa.v1.GroupService/GetGroup", "ok", 3*time.Millisecond)
	if n := testutil.CollectAndCount(rpcDuration); n < 1 {
		t.Errorf("rpc duration series = %d, want >= 1", n)
	}
}
