package internaldefs

import (
	"strconv"

	tokenAuth "github.com/MrEthical07/tokenAuth"
)

// BucketCount is the number of validate latency buckets, +Inf included.
const BucketCount = 8

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "tokenauth_audit_dropped_total"

// CounterDef names one engine counter.
type CounterDef struct {
	ID   tokenAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   tokenAuth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: tokenAuth.MetricSignInSuccess, Name: "tokenauth_sign_in_success_total", Help: "Sessions opened."},
	{ID: tokenAuth.MetricSignInFailure, Name: "tokenauth_sign_in_failure_total", Help: "Sign-in attempts that failed after credential checks."},
	{ID: tokenAuth.MetricSignInRateLimited, Name: "tokenauth_sign_in_rate_limited_total", Help: "Sign-in attempts rejected by the throttle."},
	{ID: tokenAuth.MetricInvalidCredentials, Name: "tokenauth_invalid_credentials_total", Help: "Credential checks rejected by the directory."},
	{ID: tokenAuth.MetricReissueSuccess, Name: "tokenauth_reissue_success_total", Help: "Access tokens reissued."},
	{ID: tokenAuth.MetricReissueFailure, Name: "tokenauth_reissue_failure_total", Help: "Failed reissue attempts."},
	{ID: tokenAuth.MetricReissueRateLimited, Name: "tokenauth_reissue_rate_limited_total", Help: "Reissue attempts rejected by the throttle."},
	{ID: tokenAuth.MetricRefreshRotated, Name: "tokenauth_refresh_rotated_total", Help: "Refresh tokens replaced during reissue."},
	{ID: tokenAuth.MetricSessionNotFound, Name: "tokenauth_session_not_found_total", Help: "Reissue attempts without a live session."},
	{ID: tokenAuth.MetricSignOut, Name: "tokenauth_sign_out_total", Help: "Completed sign-outs."},
	{ID: tokenAuth.MetricTokenRevoked, Name: "tokenauth_token_revoked_total", Help: "Tokens added to the revocation list."},
	{ID: tokenAuth.MetricValidateSuccess, Name: "tokenauth_validate_success_total", Help: "Access tokens accepted."},
	{ID: tokenAuth.MetricValidateRejected, Name: "tokenauth_validate_rejected_total", Help: "Access tokens rejected."},
	{ID: tokenAuth.MetricRevokedTokenRejected, Name: "tokenauth_revoked_token_rejected_total", Help: "Revoked access tokens presented again."},
	{ID: tokenAuth.MetricRegisterSuccess, Name: "tokenauth_register_success_total", Help: "Successful sign-ups."},
	{ID: tokenAuth.MetricRegisterFailure, Name: "tokenauth_register_failure_total", Help: "Failed sign-ups."},
	{ID: tokenAuth.MetricStoreUnavailable, Name: "tokenauth_store_unavailable_total", Help: "Operations failed by a Redis error."},
	{ID: tokenAuth.MetricDirectoryUnavailable, Name: "tokenauth_directory_unavailable_total", Help: "Operations failed by a directory outage."},
}

var HistogramDefs = []HistogramDef{
	{ID: tokenAuth.MetricValidateLatency, Name: "tokenauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// UpperBounds returns the finite bucket bounds in seconds.
func UpperBounds() []float64 {
	bounds := tokenAuth.LatencyBucketBounds()
	out := make([]float64, len(bounds))
	for i, b := range bounds {
		out[i] = b.Seconds()
	}
	return out
}

// LeLabels returns the "le" label value of every bucket in Prometheus text
// form, e.g. "0.005" and "+Inf".
func LeLabels() []string {
	bounds := UpperBounds()
	out := make([]string, 0, len(bounds)+1)
	for _, b := range bounds {
		out = append(out, strconv.FormatFloat(b, 'f', -1, 64))
	}
	return append(out, "+Inf")
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
