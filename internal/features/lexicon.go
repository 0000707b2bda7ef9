package features

// LexiconVersion identifies the keyword and sentiment word lists below.
// Bump it when any list changes; tests pin the current membership.
const LexiconVersion = 1

var (
	tutorialTerms = []string{
		"tutorial", "learn", "course", "guide", "how to", "explained", "walkthrough",
	}
	timeConstraintTerms = []string{
		"24 hours", "1 day", "1 hour", "minutes", "seconds", "crash course", "quick", "fast",
	}
	beginnerTerms = []string{
		"beginner", "start", "basics", "introduction", "getting started", "first time", "new to",
	}
	techTerms = []string{
		"ai", "artificial intelligence", "machine learning", "neural network", "coding", "programming", "tech",
	}
	projectTerms = []string{
		"challenge", "build", "create", "project", "diy", "make", "workout", "routine", "recipe",
	}

	positiveTerms = []string{
		"amazing", "best", "awesome", "great", "perfect", "love", "incredible",
	}
	negativeTerms = []string{
		"hard", "difficult", "impossible", "failed", "broke", "wrong",
	}
)
