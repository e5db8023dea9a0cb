package feed

import (
	"context"
	"time"

	"linkfeed/pkg/logger"
	"linkfeed/pkg/retry"
	"linkfeed/pkg/voyager"
)

// PageFetcher fetches one raw page of a profile's activity feed. The
// production implementation is the voyager client; tests inject fakes.
type PageFetcher interface {
	FetchActivityPage(profileURN string, count, start int, paginationToken string) (*voyager.Page, error)
}

// PageRange is one (offset, page-size) pair of a pagination plan
type PageRange struct {
	Start int
	Count int
}

// Ranges builds contiguous, non-overlapping ranges covering [0, target)
// in fixed increments. The final range is truncated to the target.
func Ranges(target, increment int) []PageRange {
	if target <= 0 || increment <= 0 {
		return nil
	}

	var ranges []PageRange
	for start := 0; start < target; start += increment {
		count := increment
		if start+count > target {
			count = target - start
		}
		ranges = append(ranges, PageRange{Start: start, Count: count})
	}
	return ranges
}

// Result is the outcome of one aggregation run. Posts collected before
// a failure are always retained.
type Result struct {
	Succeeded      bool   `json:"succeeded"`
	PagesCompleted int    `json:"pages_completed"`
	Posts          []Post `json:"posts"`
	FailureReason  string `json:"failure_reason,omitempty"`
}

// Controller drives a token-chained pagination sequence. Pages are
// fetched strictly one at a time because each request depends on the
// token extracted from the previous response.
type Controller struct {
	fetcher   PageFetcher
	assembler *PostAssembler
	dedup     *DedupStore
	pageDelay time.Duration
	progress  func(pagesCompleted, postsCollected int)
	onPage    func(pageIndex int, page *voyager.Page)
	logger    logger.Logger
}

// NewController creates a pagination controller. A nil assembler gets
// default media preferences; a nil logger gets the global logger.
func NewController(fetcher PageFetcher, assembler *PostAssembler, pageDelay time.Duration, log logger.Logger) *Controller {
	if assembler == nil {
		assembler = NewPostAssembler(nil)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Controller{
		fetcher:   fetcher,
		assembler: assembler,
		dedup:     NewDedupStore(),
		pageDelay: pageDelay,
		logger:    log,
	}
}

// SetProgress registers a callback invoked after each completed page
// with the cumulative page and post counts
func (c *Controller) SetProgress(fn func(pagesCompleted, postsCollected int)) {
	c.progress = fn
}

// SetPageObserver registers a callback invoked with each fetched page
// before it is assembled. The index is zero-based.
func (c *Controller) SetPageObserver(fn func(pageIndex int, page *voyager.Page)) {
	c.onPage = fn
}

// Run fetches the given ranges of a profile's feed and returns the
// assembled posts with continuous global sequence numbers.
//
// Page 1 is fetched without a continuation token; each later page
// requires the token from the immediately preceding response. A missing
// token halts the run successfully with the pages already fetched. A
// fetch error halts the run as failed, retaining partial results.
func (c *Controller) Run(ctx context.Context, profileURN string, ranges []PageRange) Result {
	c.dedup.Reset()

	result := Result{Succeeded: true}
	token := ""

	for i, r := range ranges {
		if i > 0 && token == "" {
			c.logger.InfoWithFields("no continuation token, halting pagination", map[string]interface{}{
				"profile_urn":     profileURN,
				"pages_completed": result.PagesCompleted,
			})
			break
		}

		if err := ctx.Err(); err != nil {
			result.Succeeded = false
			result.FailureReason = err.Error()
			return result
		}

		page, err := c.fetcher.FetchActivityPage(profileURN, r.Count, r.Start, token)
		if err != nil {
			c.logger.ErrorWithFields("page fetch failed", map[string]interface{}{
				"profile_urn":     profileURN,
				"start":           r.Start,
				"pages_completed": result.PagesCompleted,
				"error":           err.Error(),
			})
			result.Succeeded = false
			result.FailureReason = err.Error()
			return result
		}

		if c.onPage != nil {
			c.onPage(i, page)
		}

		emitted := c.assemblePage(page, r, &result)

		result.PagesCompleted++
		token = page.PaginationToken()
		if c.progress != nil {
			c.progress(result.PagesCompleted, len(result.Posts))
		}

		c.logger.InfoWithFields("page assembled", map[string]interface{}{
			"profile_urn": profileURN,
			"start":       r.Start,
			"emitted":     emitted,
			"has_token":   token != "",
		})

		// Inter-page delay to respect rate limits, skipped after the
		// final page
		if i < len(ranges)-1 && token != "" {
			if err := retry.Wait(ctx, c.pageDelay); err != nil {
				result.Succeeded = false
				result.FailureReason = err.Error()
				return result
			}
		}
	}

	return result
}

// assemblePage walks one page's reference list in order, assembling,
// filtering, and numbering each referenced entity. Returns the number
// of posts emitted from the page.
func (c *Controller) assemblePage(page *voyager.Page, r PageRange, result *Result) int {
	idx := NewEntityIndex(page.Included, voyager.TypeUpdate)

	rank := 0
	for _, urn := range page.Elements() {
		entity, ok := idx.Resolve(urn)
		if !ok {
			c.logger.DebugWithFields("reference not found in entity index", map[string]interface{}{
				"urn": urn,
			})
			continue
		}

		post, ok := c.assembler.Assemble(entity, idx)
		if !ok {
			continue
		}

		if !c.dedup.MarkIfNew(post.ID) {
			continue
		}

		rank++
		post.Sequence = r.Start + rank
		result.Posts = append(result.Posts, *post)
	}

	return rank
}
