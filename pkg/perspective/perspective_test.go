package perspective_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pensieveco/pensieve/pkg/perspective"
	"github.com/pensieveco/pensieve/pkg/repo/inmemory"
)

func TestPerspective(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Perspective Suite")
}

var _ = Describe("Manager", func() {
	var (
		ctx     context.Context
		manager *perspective.Manager
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		manager, err = perspective.NewManager(perspective.Config{
			Store: inmemory.NewStore(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Add", func() {
		It("requires a frame", func() {
			err := manager.Add(ctx, "mem1", perspective.Perspective{Gist: "no frame"})
			Expect(err).To(HaveOccurred())
		})

		It("replaces the view for an existing frame", func() {
			Expect(manager.Add(ctx, "mem1", perspective.Perspective{Frame: "food", Gist: "old"})).To(Succeed())
			Expect(manager.Add(ctx, "mem1", perspective.Perspective{Frame: "food", Gist: "new"})).To(Succeed())

			views, err := manager.All(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(1))
			Expect(views["food"].Gist).To(Equal("new"))
		})
	})

	Describe("BestFor", func() {
		It("returns nil for memories without perspectives", func() {
			best, err := manager.BestFor(ctx, "mem1", []string{"food"})
			Expect(err).NotTo(HaveOccurred())
			Expect(best).To(BeNil())
		})

		It("prefers the perspective whose frame matches the context", func() {
			Expect(manager.Add(ctx, "mem1", perspective.Perspective{
				Frame: "travel", Gist: "trip planning", Salience: 0.6,
			})).To(Succeed())
			Expect(manager.Add(ctx, "mem1", perspective.Perspective{
				Frame: "food", Gist: "favorite restaurants", Salience: 0.4,
			})).To(Succeed())

			best, err := manager.BestFor(ctx, "mem1", []string{"food"})
			Expect(err).NotTo(HaveOccurred())
			Expect(best).NotTo(BeNil())
			Expect(best.Frame).To(Equal("food"))
		})

		It("falls back to the highest salience without a context match", func() {
			Expect(manager.Add(ctx, "mem1", perspective.Perspective{
				Frame: "travel", Gist: "trip planning", Salience: 0.6,
			})).To(Succeed())
			Expect(manager.Add(ctx, "mem1", perspective.Perspective{
				Frame: "food", Gist: "favorite restaurants", Salience: 0.4,
			})).To(Succeed())

			best, err := manager.BestFor(ctx, "mem1", []string{"work"})
			Expect(err).NotTo(HaveOccurred())
			Expect(best.Frame).To(Equal("travel"))
		})
	})
})
