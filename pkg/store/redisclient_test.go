package store

import (
	"context"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

var _ = Describe("Client", func() {
	var (
		ctx       context.Context
		miniRedis *miniredis.Miniredis
		redisAddr string
		client    *Client
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		miniRedis, err = miniredis.Run()
		Expect(err).ToNot(HaveOccurred())
		redisAddr = miniRedis.Addr()
	})

	AfterEach(func() {
		if client != nil {
			_ = client.Close()
		}
		if miniRedis != nil {
			miniRedis.Close()
		}
	})

	Describe("EnsureConnection", func() {
		Context("when Redis is available", func() {
			It("establishes the connection on first call", func() {
				client = NewClient(&redis.Options{Addr: redisAddr}, logr.Discard())
				Expect(client.EnsureConnection(ctx)).To(Succeed())
			})

			It("uses the atomic fast path on subsequent calls", func() {
				client = NewClient(&redis.Options{Addr: redisAddr}, logr.Discard())
				Expect(client.EnsureConnection(ctx)).To(Succeed())

				start := time.Now()
				Expect(client.EnsureConnection(ctx)).To(Succeed())
				Expect(time.Since(start)).To(BeNumerically("<", 1*time.Millisecond))
			})
		})

		Context("when Redis is unavailable", func() {
			It("returns an error without panicking", func() {
				client = NewClient(&redis.Options{Addr: "localhost:9999", DialTimeout: 100 * time.Millisecond}, logr.Discard())

				err := client.EnsureConnection(ctx)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("redis unavailable"))
			})
		})

		Context("when called concurrently", func() {
			It("does not race", func() {
				client = NewClient(&redis.Options{Addr: redisAddr}, logr.Discard())

				var wg sync.WaitGroup
				errs := make([]error, 10)
				for i := range errs {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						errs[i] = client.EnsureConnection(ctx)
					}(i)
				}
				wg.Wait()

				for _, err := range errs {
					Expect(err).ToNot(HaveOccurred())
				}
			})
		})
	})
})
