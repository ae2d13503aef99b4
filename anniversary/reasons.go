package anniversary

import "fmt"

// Reasons is the built-in list shown in the carousel.
var Reasons = []string{
	"You’re the most caring person I know. You look out for everyone you love.",
	"You’re always down to hang out with me, whether it’s going out and adventuring or staying in and doing nothing (either way we always have fun!)",
	"You are incredibly emotionally intelligent and I always feel safe and heard talking to you about anything.",
	"I love how silly you are - you make me smile and laugh every day, and I love that we have our own sense of humor that we’ve curated together.",
	"You’re sweet, gentle, and affectionate - you always make me feel so loved.",
	"Your energy! You have the best vibes out of anyone I’ve ever met - happy and bright but also warm and cozy.",
	"You are so hardworking and go above and beyond for everything you care about.",
	"You pay attention to me and always make sure that I’m doing okay - it makes me feel so cared about and I’m so lucky!",
	"You send me the most wonderful good morning and good night texts! I love that you’re always the start and end of my day.",
	"You have a strong moral compass and always do the right thing.",
	"You always come up with good ideas for fun things we can do together!",
	"You deal with problems so well - whenever we’re dealing with anything, you’re incredibly mature and always help us get to a solution.",
	"You want a future together - knowing how excited you are about having a family, living together, exploring the world together, etc. makes me so happy.",
	"You’re incredibly thoughtful and observant - you notice things that no one else pays attention to.",
	"You make everyday things like getting groceries or watching TV my favorite parts of the week!",
	"You’re always sharing things with me - life updates, silly tiktoks, tea, music, etc. I love it all.",
	"You’re a great listener - you somehow understand everything I tell you and always know exactly what to say.",
	"You ask such good questions and I genuinely enjoy every single conversation that we have.",
	"You’re so good at balancing seriousness and silliness - no matter what the vibe is, you’re my person.",
	"You’re comfortable being yourself around me - it makes me feel comfortable being myself too.",
	"You’re beautiful! You smell good, you’re sexy and stylish, your features are stunning - the list goes on.",
	"You’re my safe/comfort person and I know that I can trust you with anything.",
}

// Carousel steps through a list of reasons, wrapping at both ends.
type Carousel struct {
	items []string
	cur   int
}

// NewCarousel starts at the first item.
func NewCarousel(items []string) *Carousel {
	return &Carousel{items: items}
}

// Seek moves to item i, taken modulo the list length.
func (c *Carousel) Seek(i int) {
	if n := len(c.items); n > 0 {
		c.cur = ((i % n) + n) % n
	}
}

func (c *Carousel) Next() string { c.Seek(c.cur + 1); return c.Current() }
func (c *Carousel) Prev() string { c.Seek(c.cur - 1); return c.Current() }

// Current returns the item on display, or "" for an empty list.
func (c *Carousel) Current() string {
	if len(c.items) == 0 {
		return ""
	}
	return c.items[c.cur]
}

// Index is the zero-based position of the current item.
func (c *Carousel) Index() int { return c.cur }

// Indicator renders the position as "3 / 22".
func (c *Carousel) Indicator() string {
	if len(c.items) == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", c.cur+1, len(c.items))
}
