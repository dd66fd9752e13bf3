// CommunityMap - Geotagged Community Content on a Shared Map
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/communitymap

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "metrics_test"))

	RecordDBQuery("INSERT", "metrics_test", 3*time.Millisecond, nil)
	RecordDBQuery("INSERT", "metrics_test", 3*time.Millisecond, errors.New("constraint"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "metrics_test"))
	if after-before != 1 {
		t.Errorf("expected one recorded error, got %v", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("GET", "/metrics-test", "200")
	before := testutil.ToFloat64(c)
	RecordAPIRequest("GET", "/metrics-test", "200", time.Millisecond)
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("expected counter +1, got %v", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("expected %v, got %v", before, got)
	}
}

func TestRecordAuthAttempt(t *testing.T) {
	ok := AuthAttempts.WithLabelValues("login", "success")
	bad := AuthAttempts.WithLabelValues("login", "failure")
	okBefore, badBefore := testutil.ToFloat64(ok), testutil.ToFloat64(bad)

	RecordAuthAttempt("login", true)
	RecordAuthAttempt("login", false)
	RecordAuthAttempt("login", false)

	if testutil.ToFloat64(ok)-okBefore != 1 {
		t.Error("expected one success")
	}
	if testutil.ToFloat64(bad)-badBefore != 2 {
		t.Error("expected two failures")
	}
}

func TestRecordReportedError(t *testing.T) {
	c := ReportedErrors.WithLabelValues("metrics_test")
	before := testutil.ToFloat64(c)
	RecordReportedError("metrics_test")
	if testutil.ToFloat64(c)-before != 1 {
		t.Error("expected reported error counter +1")
	}
}
