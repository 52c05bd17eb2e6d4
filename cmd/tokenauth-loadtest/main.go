package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/tokenAuth"
)

type subjectState struct {
	subject string
	access  string
	mu      sync.Mutex
}

func main() {
	var (
		subjects    = flag.Int("subjects", 10000, "number of subjects to sign in")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 100000, "operations per phase (validate + reissue)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		rotate      = flag.Bool("rotate", false, "rotate the refresh token on every reissue")
	)
	flag.Parse()

	if *subjects <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "subjects, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := tokenAuth.DefaultConfig()
	cfg.Session.RotateRefreshOnReissue = *rotate
	cfg.Security.EnableReissueThrottle = false
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := tokenAuth.New().
		WithConfig(cfg).
		WithKeys(randomKeys()).
		WithRedis(client).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]subjectState, *subjects)
	fmt.Printf("signing in %d subjects...\n", *subjects)
	startSeed := time.Now()
	for i := 0; i < *subjects; i++ {
		subject := fmt.Sprintf("user-%d@example.com", i)
		access, err := engine.SignIn(ctx, subject)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sign-in failed: %v\n", err)
			os.Exit(1)
		}
		states[i].subject = subject
		states[i].access = access
	}
	fmt.Printf("signed in in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runPhase(*ops, *concurrency, 7919, func(r *mrand.Rand) error {
		st := &states[r.Intn(len(states))]
		st.mu.Lock()
		access := st.access
		st.mu.Unlock()
		_, err := engine.Validate(ctx, access)
		return err
	})

	reissueStats := runPhase(*ops, *concurrency, 6151, func(r *mrand.Rand) error {
		st := &states[r.Intn(len(states))]
		st.mu.Lock()
		defer st.mu.Unlock()
		next, err := engine.Reissue(ctx, st.access)
		if err == nil {
			st.access = next
		}
		return err
	})

	var signOutCursor int64
	signOutStats := runPhase(len(states), *concurrency, 4099, func(*mrand.Rand) error {
		st := &states[atomic.AddInt64(&signOutCursor, 1)-1]
		st.mu.Lock()
		defer st.mu.Unlock()
		return engine.SignOut(ctx, st.access)
	})

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("reissue", reissueStats)
	printStats("sign-out", signOutStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("counters: sign_in=%d reissue=%d rotated=%d sign_out=%d validate=%d rejected=%d store_unavailable=%d\n",
		snap.Counters[tokenAuth.MetricSignInSuccess],
		snap.Counters[tokenAuth.MetricReissueSuccess],
		snap.Counters[tokenAuth.MetricRefreshRotated],
		snap.Counters[tokenAuth.MetricSignOut],
		snap.Counters[tokenAuth.MetricValidateSuccess],
		snap.Counters[tokenAuth.MetricValidateRejected],
		snap.Counters[tokenAuth.MetricStoreUnavailable],
	)
}

// runPhase executes ops calls of fn across concurrency workers.
func runPhase(ops, concurrency int, seed int64, fn func(r *mrand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := fn(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// randomKeys generates throwaway secrets; tokens do not outlive the run.
func randomKeys() tokenAuth.Keys {
	keys := tokenAuth.Keys{
		SigningKey: make([]byte, 32),
		CipherKey:  make([]byte, 32),
	}
	if _, err := rand.Read(keys.SigningKey); err != nil {
		panic(err)
	}
	if _, err := rand.Read(keys.CipherKey); err != nil {
		panic(err)
	}
	return keys
}
