package recall_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pensieveco/pensieve/pkg/corpus"
	"github.com/pensieveco/pensieve/pkg/memstore"
	memstoreinmemory "github.com/pensieveco/pensieve/pkg/memstore/inmemory"
	"github.com/pensieveco/pensieve/pkg/perspective"
	"github.com/pensieveco/pensieve/pkg/recall"
	"github.com/pensieveco/pensieve/pkg/reinforce"
	repoinmemory "github.com/pensieveco/pensieve/pkg/repo/inmemory"
	testutils "github.com/pensieveco/pensieve/pkg/utils/test"
	"github.com/pensieveco/pensieve/pkg/vector"
)

func TestRecall(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Recall Suite")
}

// mockCorpus returns canned corpus hits, or a canned error.
type mockCorpus struct {
	hits []corpus.Hit
	err  error
}

func (m *mockCorpus) Search(_ context.Context, _ string, topK int) ([]corpus.Hit, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.hits) < topK {
		return m.hits, nil
	}
	return m.hits[:topK], nil
}

func (m *mockCorpus) Close() error { return nil }

var _ = Describe("Engine", func() {
	var (
		ctx      context.Context
		driver   *testutils.MockVectorDriver
		tracker  *reinforce.Tracker
		memories memstore.Store
		clock    time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		driver = testutils.NewMockVectorDriver()
		memories = memstoreinmemory.NewStore()

		var err error
		tracker, err = reinforce.NewTracker(reinforce.Config{
			Store:    repoinmemory.NewStore(),
			Memories: memories,
			Now:      func() time.Time { return clock },
		})
		Expect(err).NotTo(HaveOccurred())
	})

	newEngine := func(c recall.Config) *recall.Engine {
		if c.Vector == nil {
			c.Vector = driver
		}
		if c.Tracker == nil {
			c.Tracker = tracker
		}
		engine, err := recall.NewEngine(c)
		Expect(err).NotTo(HaveOccurred())
		return engine
	}

	Describe("Recall", func() {
		BeforeEach(func() {
			driver.Results = []vector.Result{
				{Document: vector.Document{ID: "close", Content: "sushi dinner in tokyo", Salience: 0.9}, Distance: 0.1},
				{Document: vector.Document{ID: "near", Content: "ramen lunch", Salience: 0.5}, Distance: 0.4},
				{Document: vector.Document{ID: "far", Content: "tax filing notes", Salience: 0.5}, Distance: 3.0},
			}
		})

		It("filters hits below the similarity floor", func() {
			results, err := newEngine(recall.Config{}).Recall(ctx, "sushi", recall.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("close"))
			Expect(results[0].Similarity).To(BeNumerically("~", 1.0/1.1, 1e-9))
			Expect(results[1].ID).To(Equal("near"))
		})

		It("keeps low-confidence hits on request", func() {
			results, err := newEngine(recall.Config{}).Recall(ctx, "sushi", recall.Options{
				IncludeLowConfidence: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[2].ID).To(Equal("far"))
		})

		It("caps results at max", func() {
			results, err := newEngine(recall.Config{}).Recall(ctx, "sushi", recall.Options{MaxResults: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("close"))
		})

		It("records an access and returns the dynamic salience", func() {
			results, err := newEngine(recall.Config{}).Recall(ctx, "sushi", recall.Options{MaxResults: 1})
			Expect(err).NotTo(HaveOccurred())

			detail, err := tracker.Inspect(ctx, "close")
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.AccessCount).To(Equal(1))
			Expect(detail.InitialSalience).To(Equal(0.9))

			// 0.9 initial + one access boost, no decay on the same day.
			Expect(results[0].Salience).To(BeNumerically("~", 0.91, 1e-9))
		})

		It("recalls nothing when the index is unreachable", func() {
			driver.SearchErr = errors.New("index offline")

			results, err := newEngine(recall.Config{}).Recall(ctx, "sushi", recall.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("does not record accesses for rejected hits", func() {
			_, err := newEngine(recall.Config{}).Recall(ctx, "sushi", recall.Options{})
			Expect(err).NotTo(HaveOccurred())

			detail, err := tracker.Inspect(ctx, "far")
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.AccessCount).To(BeZero())
		})

		It("enriches results from the memory store", func() {
			Expect(memories.Put(ctx, &memstore.Memory{
				ID:        "close",
				Summary:   "Dinner at the sushi place in Tokyo",
				Frames:    []string{"food"},
				Tags:      []string{"travel"},
				Timestamp: clock.Add(-48 * time.Hour),
			})).To(Succeed())

			results, err := newEngine(recall.Config{Memories: memories}).
				Recall(ctx, "sushi", recall.Options{MaxResults: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Summary).To(Equal("Dinner at the sushi place in Tokyo"))
			Expect(results[0].Frames).To(Equal([]string{"food"}))
			Expect(results[0].Tags).To(Equal([]string{"travel"}))
		})

		It("attaches the perspective matching the context frames", func() {
			perspectives, err := perspective.NewManager(perspective.Config{
				Store: repoinmemory.NewStore(),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(perspectives.Add(ctx, "close", perspective.Perspective{
				Frame: "food", Gist: "knows a good sushi spot", Salience: 0.4,
			})).To(Succeed())
			Expect(perspectives.Add(ctx, "close", perspective.Perspective{
				Frame: "travel", Gist: "was in Tokyo in June", Salience: 0.6,
			})).To(Succeed())

			results, err := newEngine(recall.Config{Perspectives: perspectives}).
				Recall(ctx, "sushi", recall.Options{
					MaxResults:    1,
					ContextFrames: []string{"food"},
				})
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Perspective).NotTo(BeNil())
			Expect(results[0].Perspective.Gist).To(Equal("knows a good sushi spot"))
		})
	})

	Describe("RecallHybrid", func() {
		It("merges corpus chunks below memories of equal distance", func() {
			driver.Results = []vector.Result{
				{Document: vector.Document{ID: "mem1", Content: "sushi dinner in tokyo", Salience: 0.5}, Distance: 0.25},
			}
			chunks := &mockCorpus{hits: []corpus.Hit{{
				Chunk: corpus.Chunk{
					Content:   "Notes about a sushi place in tokyo worth revisiting",
					Source:    "/notes/food.md",
					Heading:   "Restaurants",
					StartLine: 5,
				},
				Distance: 1.0,
			}}}

			results, err := newEngine(recall.Config{Corpus: chunks}).
				RecallHybrid(ctx, "sushi dinner tokyo", recall.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			Expect(results[0].ID).To(Equal("mem1"))
			Expect(results[0].Type).To(Equal(recall.ResultTypeMemory))
			Expect(results[0].Similarity).To(BeNumerically("~", 0.8, 1e-9))

			// Chunk: base 0.5, two of three terms hit for a 0.1333 bonus.
			// The merge score scales by the corpus weight; the salience
			// proxy stays at the reranked value.
			Expect(results[1].ID).To(Equal("md:food#L5"))
			Expect(results[1].Type).To(Equal(recall.ResultTypeMarkdownChunk))
			Expect(results[1].Similarity).To(BeNumerically("~", (0.5+0.2*2.0/3.0)*0.8, 1e-9))
			Expect(results[1].Salience).To(BeNumerically("~", 0.5+0.2*2.0/3.0, 1e-9))
			Expect(results[1].Source).To(Equal("/notes/food.md"))
		})

		It("drops chunks that duplicate a memory summary", func() {
			driver.Results = []vector.Result{
				{Document: vector.Document{ID: "mem1", Content: "Sushi dinner in Tokyo", Salience: 0.5}, Distance: 0.1},
			}
			chunks := &mockCorpus{hits: []corpus.Hit{{
				Chunk: corpus.Chunk{
					Content:   "sushi dinner in tokyo",
					Source:    "/notes/food.md",
					StartLine: 1,
				},
				Distance: 0.2,
			}}}

			results, err := newEngine(recall.Config{Corpus: chunks}).
				RecallHybrid(ctx, "sushi dinner", recall.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("mem1"))
		})

		It("filters chunks below the similarity floor", func() {
			driver.Results = nil
			chunks := &mockCorpus{hits: []corpus.Hit{{
				Chunk:    corpus.Chunk{Content: "unrelated text", Source: "/notes/misc.md", StartLine: 1},
				Distance: 2.0,
			}}}

			results, err := newEngine(recall.Config{Corpus: chunks}).
				RecallHybrid(ctx, "sushi dinner", recall.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("judges the floor before the corpus weight discounts the score", func() {
			// Distance 1.6 puts the chunk just over the floor: 1/2.6 ≈ 0.385.
			// Weighting it first would land at 0.308 and wrongly drop it.
			driver.Results = nil
			chunks := &mockCorpus{hits: []corpus.Hit{{
				Chunk:    corpus.Chunk{Content: "travel checklist for autumn", Source: "/notes/misc.md", StartLine: 1},
				Distance: 1.6,
			}}}

			results, err := newEngine(recall.Config{Corpus: chunks}).
				RecallHybrid(ctx, "sushi dinner", recall.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Similarity).To(BeNumerically("~", (1.0/2.6)*0.8, 1e-9))
			Expect(results[0].Salience).To(BeNumerically("~", 1.0/2.6, 1e-9))
		})

		It("returns memory results when the corpus search fails", func() {
			driver.Results = []vector.Result{
				{Document: vector.Document{ID: "mem1", Content: "sushi dinner", Salience: 0.5}, Distance: 0.1},
			}
			chunks := &mockCorpus{err: errors.New("corpus offline")}

			results, err := newEngine(recall.Config{Corpus: chunks}).
				RecallHybrid(ctx, "sushi", recall.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("mem1"))
		})

		It("degrades to memory-only recall without a corpus", func() {
			driver.Results = []vector.Result{
				{Document: vector.Document{ID: "mem1", Content: "sushi dinner", Salience: 0.5}, Distance: 0.1},
			}

			results, err := newEngine(recall.Config{}).
				RecallHybrid(ctx, "sushi", recall.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})
	})
})

var _ = Describe("FormatForContext", func() {
	It("reports when nothing was recalled", func() {
		Expect(recall.FormatForContext(nil, false)).To(Equal("No relevant memories found."))
	})

	It("labels confidence and prefers the perspective gist", func() {
		out := recall.FormatForContext([]recall.Result{
			{
				Summary:     "sushi dinner in tokyo",
				Similarity:  0.8,
				Salience:    0.91,
				Perspective: &perspective.Perspective{Frame: "food", Gist: "knows a good sushi spot"},
			},
			{Summary: "ramen lunch", Similarity: 0.45, Salience: 0.5},
			{Summary: "tax notes", Similarity: 0.3, Salience: 0.2},
		}, false)

		Expect(out).To(ContainSubstring("knows a good sushi spot"))
		Expect(out).NotTo(ContainSubstring("sushi dinner in tokyo"))
		Expect(out).To(ContainSubstring("confidence: high"))
		Expect(out).To(ContainSubstring("confidence: moderate"))
		Expect(out).To(ContainSubstring("confidence: low"))
	})

	It("adds frames, tags, and sources in verbose mode", func() {
		out := recall.FormatForContext([]recall.Result{
			{
				Summary:    "chunk text",
				Similarity: 0.6,
				Type:       recall.ResultTypeMarkdownChunk,
				Source:     "/notes/food.md",
				Frames:     []string{"food"},
				Tags:       []string{"travel"},
			},
		}, true)

		Expect(out).To(ContainSubstring("frames: food"))
		Expect(out).To(ContainSubstring("tags: travel"))
		Expect(out).To(ContainSubstring("source: /notes/food.md"))
	})
})
