package metricskey

import "github.com/effective-security/metrics"

// Perf
var (
	// PerfSign is perf metric
	PerfSign = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_jws_sign",
		Help:         "perf_jws_sign provides the sample metrics of token signing",
		RequiredTags: []string{"alg", "kid"},
	}

	// PerfVerify is perf metric
	PerfVerify = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_jws_verify",
		Help:         "perf_jws_verify provides the sample metrics of token verification",
		RequiredTags: []string{"alg", "result"},
	}

	// PerfKMSOperation is perf metric
	PerfKMSOperation = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_kms",
		Help:         "perf_kms provides the sample metrics of KMS operations",
		RequiredTags: []string{"provider", "action"},
	}
)

// Metrics returns slice of metrics from this repo
var Metrics = []*metrics.Describe{
	&PerfSign,
	&PerfVerify,
	&PerfKMSOperation,
}
