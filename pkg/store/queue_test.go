package store

import (
	"context"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

var _ = Describe("JobQueue", func() {
	var (
		ctx       context.Context
		miniRedis *miniredis.Miniredis
		client    *Client
		queue     *JobQueue
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		miniRedis, err = miniredis.Run()
		Expect(err).ToNot(HaveOccurred())

		client = NewClient(&redis.Options{Addr: miniRedis.Addr()}, logr.Discard())
		Expect(client.EnsureConnection(ctx)).To(Succeed())
		queue = NewJobQueue(client, "jobs")
	})

	AfterEach(func() {
		_ = client.Close()
		miniRedis.Close()
	})

	It("returns a nil lease when the queue is empty", func() {
		lease, err := queue.Dequeue(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(lease).To(BeNil())
	})

	It("dequeues in FIFO order", func() {
		Expect(queue.Enqueue(ctx, "job-a")).To(Succeed())
		Expect(queue.Enqueue(ctx, "job-b")).To(Succeed())

		first, err := queue.Dequeue(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(first.JobID).To(Equal("job-a"))

		second, err := queue.Dequeue(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(second.JobID).To(Equal("job-b"))
	})

	It("removes an acked lease from the pending list", func() {
		Expect(queue.Enqueue(ctx, "job-a")).To(Succeed())
		lease, err := queue.Dequeue(ctx)
		Expect(err).ToNot(HaveOccurred())

		Expect(queue.Ack(ctx, lease)).To(Succeed())
		Expect(miniRedis.Exists(queue.pending)).To(BeFalse())
	})

	It("re-enqueues a failed lease for retry", func() {
		Expect(queue.Enqueue(ctx, "job-a")).To(Succeed())
		lease, err := queue.Dequeue(ctx)
		Expect(err).ToNot(HaveOccurred())

		Expect(queue.Fail(ctx, lease)).To(Succeed())

		retried, err := queue.Dequeue(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(retried.JobID).To(Equal("job-a"))
	})
})
