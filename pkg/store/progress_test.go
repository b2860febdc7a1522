package store

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/citationengine/engine/pkg/citation"
)

var _ = Describe("ProgressStore", func() {
	var (
		ctx       context.Context
		miniRedis *miniredis.Miniredis
		client    *Client
		store     *ProgressStore
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		miniRedis, err = miniredis.Run()
		Expect(err).ToNot(HaveOccurred())

		client = NewClient(&redis.Options{Addr: miniRedis.Addr()}, logr.Discard())
		Expect(client.EnsureConnection(ctx)).To(Succeed())
		store = NewProgressStore(client)
	})

	AfterEach(func() {
		_ = client.Close()
		miniRedis.Close()
	})

	It("stores and retrieves a job", func() {
		job := &citation.Job{ID: "job-1", Status: citation.JobRunning, ProgressPct: 40}
		Expect(store.Set(ctx, job)).To(Succeed())

		got, err := store.Get(ctx, "job-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(got.ID).To(Equal("job-1"))
		Expect(got.Status).To(Equal(citation.JobRunning))
		Expect(got.ProgressPct).To(Equal(40))
	})

	It("reports ErrJobNotFound for an unknown job", func() {
		_, err := store.Get(ctx, "does-not-exist")
		Expect(err).To(MatchError(ErrJobNotFound))
	})

	It("reports existence correctly", func() {
		exists, err := store.Exists(ctx, "job-2")
		Expect(err).ToNot(HaveOccurred())
		Expect(exists).To(BeFalse())

		Expect(store.Set(ctx, &citation.Job{ID: "job-2"})).To(Succeed())

		exists, err = store.Exists(ctx, "job-2")
		Expect(err).ToNot(HaveOccurred())
		Expect(exists).To(BeTrue())
	})

	It("sets the 24h retention TTL", func() {
		Expect(store.Set(ctx, &citation.Job{ID: "job-3"})).To(Succeed())

		ttl := miniRedis.TTL(store.key("job-3"))
		Expect(ttl).To(Equal(jobTTL))
	})

	It("evicts a job once its TTL elapses", func() {
		Expect(store.Set(ctx, &citation.Job{ID: "job-4"})).To(Succeed())
		miniRedis.FastForward(jobTTL + 1)

		_, err := store.Get(ctx, "job-4")
		Expect(err).To(MatchError(ErrJobNotFound))
	})
})
