package tier_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	archiveinmem "github.com/pensieveco/pensieve/pkg/archive/inmemory"
	"github.com/pensieveco/pensieve/pkg/memstore"
	memstoreinmem "github.com/pensieveco/pensieve/pkg/memstore/inmemory"
	"github.com/pensieveco/pensieve/pkg/reinforce"
	"github.com/pensieveco/pensieve/pkg/repo/inmemory"
	"github.com/pensieveco/pensieve/pkg/tier"
)

func TestTier(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Tier Suite")
}

var _ = Describe("Manager", func() {
	var (
		ctx      context.Context
		manager  *tier.Manager
		tracker  *reinforce.Tracker
		memories *memstoreinmem.Store
		blobs    *archiveinmem.Store
		clock    time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		memories = memstoreinmem.NewStore()
		blobs = archiveinmem.NewStore()
		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		now := func() time.Time { return clock }

		var err error
		tracker, err = reinforce.NewTracker(reinforce.Config{
			Store:    inmemory.NewStore(),
			Memories: memories,
			Now:      now,
		})
		Expect(err).NotTo(HaveOccurred())

		manager, err = tier.NewManager(tier.Config{
			Store:    inmemory.NewStore(),
			Tracker:  tracker,
			Memories: memories,
			Archive:  blobs,
			Now:      now,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("CalculateTier", func() {
		It("keeps recently accessed high-salience memories hot", func() {
			Expect(tracker.RecordAccess(ctx, "mem1", 0.8)).To(Succeed())

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierHot))
			Expect(reason).To(ContainSubstring("high salience"))
		})

		It("moves stale moderate-salience memories to warm", func() {
			Expect(tracker.RecordAccess(ctx, "mem1", 0.8)).To(Succeed())
			clock = clock.AddDate(0, 0, 10)

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierWarm))
			Expect(reason).To(ContainSubstring("moderate salience"))
		})

		It("sends low-activity memories cold", func() {
			Expect(tracker.RecordAccess(ctx, "mem1", 0.4)).To(Succeed())
			clock = clock.AddDate(0, 0, 60)

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierCold))
			Expect(reason).To(ContainSubstring("low activity"))
			Expect(reason).To(ContainSubstring("60d since access"))
		})

		It("treats never-accessed memories as maximally stale", func() {
			Expect(memories.Put(ctx, &memstore.Memory{ID: "mem1", Salience: 0.9})).To(Succeed())

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierCold))
			Expect(reason).To(ContainSubstring("999d"))
		})

		It("promotes on a recent access burst despite low salience", func() {
			for range 5 {
				Expect(tracker.RecordAccess(ctx, "mem1", 0.2)).To(Succeed())
			}
			clock = clock.AddDate(0, 0, 10)

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierHot))
			Expect(reason).To(ContainSubstring("high access count (5)"))
		})

		It("promotes moderately on a smaller burst", func() {
			Expect(tracker.RecordAccess(ctx, "mem1", 0.2)).To(Succeed())
			Expect(tracker.RecordAccess(ctx, "mem1", 0.2)).To(Succeed())
			clock = clock.AddDate(0, 0, 10)

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierWarm))
			Expect(reason).To(ContainSubstring("moderate access count (2)"))
		})

		It("keeps decay-immune memories out of cold", func() {
			Expect(tracker.RecordAccess(ctx, "mem1", 0.2)).To(Succeed())
			Expect(tracker.Boost(ctx, "mem1", 0, true)).To(Succeed())
			clock = clock.AddDate(1, 0, 0)

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierWarm))
			Expect(reason).To(Equal("decay-immune"))
		})

		It("keeps decay-immune high-salience memories hot", func() {
			Expect(tracker.RecordAccess(ctx, "mem1", 0.8)).To(Succeed())
			Expect(tracker.Boost(ctx, "mem1", 0, true)).To(Succeed())
			clock = clock.AddDate(1, 0, 0)

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierHot))
			Expect(reason).To(Equal("decay-immune, high salience"))
		})

		It("floors locked memories at warm", func() {
			Expect(manager.Lock(ctx, "mem1", true)).To(Succeed())
			Expect(tracker.RecordAccess(ctx, "mem1", 0.2)).To(Succeed())
			clock = clock.AddDate(0, 0, 60)

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierWarm))
			Expect(reason).To(Equal("locked (would be cold)"))
		})

		It("promotes locked memories already sitting cold", func() {
			Expect(manager.SetTier(ctx, "mem1", tier.TierCold, "manual")).To(Succeed())
			Expect(manager.Lock(ctx, "mem1", true)).To(Succeed())

			placement, reason, err := manager.CalculateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(placement).To(Equal(tier.TierWarm))
			Expect(reason).To(Equal("locked (promoted from cold)"))
		})
	})

	Describe("UpdateTier", func() {
		It("applies a changed placement", func() {
			Expect(tracker.RecordAccess(ctx, "mem1", 0.8)).To(Succeed())
			clock = clock.AddDate(0, 0, 10)

			change, err := manager.UpdateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(change.Changed).To(BeTrue())
			Expect(change.OldTier).To(Equal(tier.TierHot))
			Expect(change.NewTier).To(Equal(tier.TierWarm))

			state, err := manager.State(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Tier).To(Equal(tier.TierWarm))
			Expect(state.TierChanged).NotTo(BeNil())
		})

		It("reports no change when placement holds", func() {
			Expect(tracker.RecordAccess(ctx, "mem1", 0.8)).To(Succeed())

			change, err := manager.UpdateTier(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(change.Changed).To(BeFalse())
			Expect(change.NewTier).To(Equal(tier.TierHot))
		})
	})

	Describe("UpdateAllTiers", func() {
		It("returns only the memories that moved", func() {
			Expect(tracker.RecordAccess(ctx, "stays", 0.8)).To(Succeed())
			Expect(tracker.RecordAccess(ctx, "fades", 0.4)).To(Succeed())
			clock = clock.AddDate(0, 0, 60)
			Expect(tracker.RecordAccess(ctx, "stays", 0.8)).To(Succeed())

			changes, err := manager.UpdateAllTiers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].MemoryID).To(Equal("fades"))
			Expect(changes[0].NewTier).To(Equal(tier.TierCold))
		})
	})

	Describe("Report", func() {
		It("groups memories by tier sorted by salience", func() {
			Expect(tracker.RecordAccess(ctx, "a", 0.6)).To(Succeed())
			Expect(tracker.RecordAccess(ctx, "b", 0.9)).To(Succeed())
			_, err := manager.UpdateTier(ctx, "a")
			Expect(err).NotTo(HaveOccurred())
			_, err = manager.UpdateTier(ctx, "b")
			Expect(err).NotTo(HaveOccurred())

			report, err := manager.Report(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Hot).To(HaveLen(2))
			Expect(report.Hot[0].ID).To(Equal("b"))
			Expect(report.Hot[1].ID).To(Equal("a"))
			Expect(report.Counts["hot"]).To(Equal(2))
			Expect(report.Counts["total"]).To(Equal(2))
		})
	})

	Describe("ArchiveVerbatim", func() {
		verbatim := json.RawMessage(`{"quotes":["exact words"],"reconstructable":{"topic":"travel"}}`)

		BeforeEach(func() {
			Expect(memories.Put(ctx, &memstore.Memory{
				ID:       "mem1",
				Salience: 0.4,
				Verbatim: verbatim,
			})).To(Succeed())
		})

		It("refuses outside the cold tier", func() {
			err := manager.ArchiveVerbatim(ctx, "mem1")
			Expect(err).To(MatchError(tier.ErrNotCold))
		})

		It("replaces the verbatim with a placeholder keeping hints", func() {
			Expect(manager.SetTier(ctx, "mem1", tier.TierCold, "manual")).To(Succeed())
			Expect(manager.ArchiveVerbatim(ctx, "mem1")).To(Succeed())

			mem, err := memories.Get(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())

			var ph map[string]any
			Expect(json.Unmarshal(mem.Verbatim, &ph)).To(Succeed())
			Expect(ph["_archived"]).To(BeTrue())
			Expect(ph["_archive_handle"]).NotTo(BeEmpty())
			Expect(ph["reconstructable"]).To(HaveKeyWithValue("topic", "travel"))

			state, err := manager.State(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(state.VerbatimArchived).To(BeTrue())
			Expect(state.ArchiveHandle).NotTo(BeEmpty())
		})

		It("is a no-op when already archived", func() {
			Expect(manager.SetTier(ctx, "mem1", tier.TierCold, "manual")).To(Succeed())
			Expect(manager.ArchiveVerbatim(ctx, "mem1")).To(Succeed())
			Expect(manager.ArchiveVerbatim(ctx, "mem1")).To(Succeed())
		})

		It("refuses memories without a verbatim payload", func() {
			Expect(memories.Put(ctx, &memstore.Memory{ID: "bare", Salience: 0.4})).To(Succeed())
			Expect(manager.SetTier(ctx, "bare", tier.TierCold, "manual")).To(Succeed())

			err := manager.ArchiveVerbatim(ctx, "bare")
			Expect(err).To(MatchError(tier.ErrNoVerbatim))
		})
	})

	Describe("RestoreVerbatim", func() {
		verbatim := json.RawMessage(`{"quotes":["exact words"],"sensory":{"sound":"rain"}}`)

		It("restores the payload byte for byte and clears the archive", func() {
			Expect(memories.Put(ctx, &memstore.Memory{
				ID:       "mem1",
				Salience: 0.4,
				Verbatim: verbatim,
			})).To(Succeed())
			Expect(manager.SetTier(ctx, "mem1", tier.TierCold, "manual")).To(Succeed())
			Expect(manager.ArchiveVerbatim(ctx, "mem1")).To(Succeed())

			Expect(manager.RestoreVerbatim(ctx, "mem1")).To(Succeed())

			mem, err := memories.Get(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect([]byte(mem.Verbatim)).To(Equal([]byte(verbatim)))

			state, err := manager.State(ctx, "mem1")
			Expect(err).NotTo(HaveOccurred())
			Expect(state.VerbatimArchived).To(BeFalse())
			Expect(state.ArchiveHandle).To(BeEmpty())
		})

		It("refuses memories that were never archived", func() {
			err := manager.RestoreVerbatim(ctx, "mem1")
			Expect(err).To(MatchError(tier.ErrNotArchived))
		})
	})
})
