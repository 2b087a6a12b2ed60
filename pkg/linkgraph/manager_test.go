package linkgraph_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pensieveco/pensieve/pkg/linkgraph"
	"github.com/pensieveco/pensieve/pkg/reinforce"
	"github.com/pensieveco/pensieve/pkg/repo/inmemory"
)

func TestLinkgraph(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Linkgraph Suite")
}

var _ = Describe("LinkType", func() {
	It("pairs directional types with their inverses", func() {
		Expect(linkgraph.LinkCausedBy.Inverse()).To(Equal(linkgraph.LinkLeadsTo))
		Expect(linkgraph.LinkLeadsTo.Inverse()).To(Equal(linkgraph.LinkCausedBy))
		Expect(linkgraph.LinkElaborates.Inverse()).To(Equal(linkgraph.LinkRelatesTo))
		Expect(linkgraph.LinkSupersedes.Inverse()).To(Equal(linkgraph.LinkRelatesTo))
		Expect(linkgraph.LinkContradicts.Inverse()).To(Equal(linkgraph.LinkContradicts))
		Expect(linkgraph.LinkRelatesTo.Inverse()).To(Equal(linkgraph.LinkRelatesTo))
	})

	It("rejects unknown types", func() {
		_, err := linkgraph.ParseLinkType("reminds_me_of")
		Expect(err).To(HaveOccurred())

		parsed, err := linkgraph.ParseLinkType("elaborates")
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(linkgraph.LinkElaborates))
	})
})

var _ = Describe("Manager", func() {
	var (
		ctx     context.Context
		manager *linkgraph.Manager
		tracker *reinforce.Tracker
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		tracker, err = reinforce.NewTracker(reinforce.Config{
			Store: inmemory.NewStore(),
			Now:   func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
		})
		Expect(err).NotTo(HaveOccurred())

		manager, err = linkgraph.NewManager(linkgraph.Config{
			Store:   inmemory.NewStore(),
			Tracker: tracker,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	addLink := func(from, to string, linkType linkgraph.LinkType) {
		GinkgoHelper()
		Expect(manager.AddLink(ctx, from, to, linkType, linkgraph.AddOptions{})).To(Succeed())
	}

	Describe("AddLink", func() {
		It("writes the forward edge both ways and a derived inverse", func() {
			addLink("a", "b", linkgraph.LinkCausedBy)

			fromA, err := manager.Related(ctx, "a", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(fromA).To(ConsistOf(
				linkgraph.Neighbor{MemoryID: "b", Direction: linkgraph.DirectionOutbound, Type: linkgraph.LinkCausedBy},
				linkgraph.Neighbor{MemoryID: "b", Direction: linkgraph.DirectionInbound, Type: linkgraph.LinkLeadsTo, Note: "[inverse link]", Derived: true},
			))

			fromB, err := manager.Related(ctx, "b", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(fromB).To(ConsistOf(
				linkgraph.Neighbor{MemoryID: "a", Direction: linkgraph.DirectionOutbound, Type: linkgraph.LinkLeadsTo, Note: "[inverse link]", Derived: true},
				linkgraph.Neighbor{MemoryID: "a", Direction: linkgraph.DirectionInbound, Type: linkgraph.LinkCausedBy},
			))
		})

		It("carries the note onto both edges", func() {
			Expect(manager.AddLink(ctx, "a", "b", linkgraph.LinkElaborates, linkgraph.AddOptions{
				Note: "expands on the outage",
			})).To(Succeed())

			fromA, err := manager.Related(ctx, "a", linkgraph.LinkElaborates)
			Expect(err).NotTo(HaveOccurred())
			Expect(fromA).To(HaveLen(1))
			Expect(fromA[0].Note).To(Equal("expands on the outage"))

			fromB, err := manager.Related(ctx, "b", linkgraph.LinkRelatesTo)
			Expect(err).NotTo(HaveOccurred())
			Expect(fromB).To(HaveLen(1))
			Expect(fromB[0].Direction).To(Equal(linkgraph.DirectionOutbound))
			Expect(fromB[0].Note).To(Equal("[inverse] expands on the outage"))
		})

		It("skips the inverse edge for one-way links", func() {
			Expect(manager.AddLink(ctx, "a", "b", linkgraph.LinkLeadsTo, linkgraph.AddOptions{
				OneWay: true,
			})).To(Succeed())

			fromA, err := manager.Related(ctx, "a", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(fromA).To(HaveLen(1))
			Expect(fromA[0].Direction).To(Equal(linkgraph.DirectionOutbound))

			fromB, err := manager.Related(ctx, "b", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(fromB).To(HaveLen(1))
			Expect(fromB[0].Direction).To(Equal(linkgraph.DirectionInbound))

			// Only the target gains reinforcement credit.
			detailB, err := tracker.Inspect(ctx, "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(detailB.LinkedBy).To(ConsistOf("a"))

			detailA, err := tracker.Inspect(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(detailA.LinkedBy).To(BeEmpty())
		})

		It("deduplicates by endpoints and type", func() {
			addLink("a", "b", linkgraph.LinkRelatesTo)
			addLink("a", "b", linkgraph.LinkRelatesTo)
			addLink("a", "b", linkgraph.LinkElaborates)

			outbound, err := manager.Related(ctx, "a", "")
			Expect(err).NotTo(HaveOccurred())

			var fromA []linkgraph.Neighbor
			for _, n := range outbound {
				if n.Direction == linkgraph.DirectionOutbound {
					fromA = append(fromA, n)
				}
			}
			Expect(fromA).To(HaveLen(2))
		})

		It("rejects self-links", func() {
			err := manager.AddLink(ctx, "a", "a", linkgraph.LinkRelatesTo, linkgraph.AddOptions{})
			Expect(err).To(MatchError(linkgraph.ErrSelfLink))
		})

		It("rejects unknown link types", func() {
			err := manager.AddLink(ctx, "a", "b", linkgraph.LinkType("bogus"), linkgraph.AddOptions{})
			Expect(err).To(HaveOccurred())
		})

		It("records inbound links on both reinforcement records", func() {
			addLink("a", "b", linkgraph.LinkRelatesTo)

			detailB, err := tracker.Inspect(ctx, "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(detailB.LinkedBy).To(ConsistOf("a"))

			detailA, err := tracker.Inspect(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(detailA.LinkedBy).To(ConsistOf("b"))
		})
	})

	Describe("RemoveLink", func() {
		It("removes the pair, reports it, and reverts reinforcement", func() {
			addLink("a", "b", linkgraph.LinkElaborates)

			removed, err := manager.RemoveLink(ctx, "a", "b", linkgraph.LinkElaborates)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeTrue())

			fromA, err := manager.Related(ctx, "a", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(fromA).To(BeEmpty())

			fromB, err := manager.Related(ctx, "b", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(fromB).To(BeEmpty())

			detailB, err := tracker.Inspect(ctx, "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(detailB.LinkedBy).To(BeEmpty())
		})

		It("removes every link between the pair when no type is given", func() {
			addLink("a", "b", linkgraph.LinkElaborates)
			addLink("a", "b", linkgraph.LinkContradicts)

			removed, err := manager.RemoveLink(ctx, "a", "b", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeTrue())

			fromA, err := manager.Related(ctx, "a", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(fromA).To(BeEmpty())

			detailB, err := tracker.Inspect(ctx, "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(detailB.LinkedBy).To(BeEmpty())
		})

		It("keeps reinforcement while another typed link from the source remains", func() {
			addLink("a", "b", linkgraph.LinkElaborates)
			addLink("a", "b", linkgraph.LinkContradicts)

			removed, err := manager.RemoveLink(ctx, "a", "b", linkgraph.LinkElaborates)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeTrue())

			detailB, err := tracker.Inspect(ctx, "b")
			Expect(err).NotTo(HaveOccurred())
			Expect(detailB.LinkedBy).To(ConsistOf("a"))
		})

		It("reports absent links without removing anything", func() {
			removed, err := manager.RemoveLink(ctx, "a", "b", linkgraph.LinkRelatesTo)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeFalse())
		})

		It("rejects unknown link types", func() {
			_, err := manager.RemoveLink(ctx, "a", "b", linkgraph.LinkType("bogus"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Related", func() {
		It("filters by link type in both directions", func() {
			addLink("a", "b", linkgraph.LinkElaborates)
			addLink("a", "c", linkgraph.LinkContradicts)

			neighbors, err := manager.Related(ctx, "a", linkgraph.LinkContradicts)
			Expect(err).NotTo(HaveOccurred())
			// The outbound edge plus the derived inverse contradicts writes back.
			Expect(neighbors).To(HaveLen(2))
			for _, n := range neighbors {
				Expect(n.MemoryID).To(Equal("c"))
			}
		})
	})

	Describe("FindPath", func() {
		BeforeEach(func() {
			addLink("a", "b", linkgraph.LinkRelatesTo)
			addLink("b", "c", linkgraph.LinkRelatesTo)
			addLink("c", "d", linkgraph.LinkRelatesTo)
		})

		It("finds a chain within the depth bound", func() {
			path, err := manager.FindPath(ctx, "a", "d", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal([]string{"a", "b", "c", "d"}))
		})

		It("traverses edges against their direction", func() {
			path, err := manager.FindPath(ctx, "d", "b", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal([]string{"d", "c", "b"}))
		})

		It("traverses one-way links backwards", func() {
			Expect(manager.AddLink(ctx, "x", "a", linkgraph.LinkLeadsTo, linkgraph.AddOptions{
				OneWay: true,
			})).To(Succeed())

			path, err := manager.FindPath(ctx, "a", "x", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal([]string{"a", "x"}))
		})

		It("returns nil beyond the depth bound", func() {
			path, err := manager.FindPath(ctx, "a", "d", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(BeNil())
		})

		It("rejects a negative depth bound", func() {
			_, err := manager.FindPath(ctx, "a", "d", -1)
			Expect(err).To(MatchError(ContainSubstring("max depth")))
		})

		It("handles the trivial path", func() {
			path, err := manager.FindPath(ctx, "a", "a", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal([]string{"a"}))
		})

		It("returns nil for disconnected memories", func() {
			path, err := manager.FindPath(ctx, "a", "island", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(BeNil())
		})
	})

	Describe("SuggestLinks", func() {
		It("ranks candidates by shared neighbors", func() {
			// hub1 and hub2 both connect a and strong; hub1 alone connects weak.
			addLink("a", "hub1", linkgraph.LinkRelatesTo)
			addLink("a", "hub2", linkgraph.LinkRelatesTo)
			addLink("hub1", "strong", linkgraph.LinkRelatesTo)
			addLink("hub2", "strong", linkgraph.LinkRelatesTo)
			addLink("hub1", "weak", linkgraph.LinkRelatesTo)

			suggestions, err := manager.SuggestLinks(ctx, "a", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(suggestions).To(HaveLen(2))
			Expect(suggestions[0].MemoryID).To(Equal("strong"))
			Expect(suggestions[0].SharedNeighbors).To(Equal(2))
			Expect(suggestions[0].Via).To(Equal([]string{"hub1", "hub2"}))
			Expect(suggestions[1].MemoryID).To(Equal("weak"))
		})

		It("counts a shared neighbor once across parallel edge types", func() {
			addLink("a", "hub", linkgraph.LinkRelatesTo)
			addLink("hub", "candidate", linkgraph.LinkElaborates)
			addLink("hub", "candidate", linkgraph.LinkContradicts)

			suggestions, err := manager.SuggestLinks(ctx, "a", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(suggestions).To(HaveLen(1))
			Expect(suggestions[0].MemoryID).To(Equal("candidate"))
			Expect(suggestions[0].SharedNeighbors).To(Equal(1))
			Expect(suggestions[0].Via).To(Equal([]string{"hub"}))
		})

		It("excludes existing neighbors and the memory itself", func() {
			addLink("a", "b", linkgraph.LinkRelatesTo)
			addLink("b", "c", linkgraph.LinkRelatesTo)
			addLink("a", "c", linkgraph.LinkRelatesTo)

			suggestions, err := manager.SuggestLinks(ctx, "a", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(suggestions).To(BeEmpty())
		})
	})

	Describe("Graph", func() {
		It("dumps every memory's outbound edges", func() {
			addLink("a", "b", linkgraph.LinkSupersedes)

			graph, err := manager.Graph(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(graph).To(HaveLen(2))
			Expect(graph["a"]).To(HaveLen(1))
			Expect(graph["a"][0].SourceID).To(Equal("a"))
			Expect(graph["a"][0].TargetID).To(Equal("b"))
			Expect(graph["b"]).To(HaveLen(1))
			Expect(graph["b"][0].Derived).To(BeTrue())
		})
	})
})
