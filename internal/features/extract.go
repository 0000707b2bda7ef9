// Package features derives the classifier input from a video.
//
// Matching is plain substring search on case-folded text, so a term can
// match inside a longer word ("ai" matches "said"). That is the long-standing
// behaviour the stored feature rows were built with; changing it requires a
// LexiconVersion bump and a re-extraction of every row.
package features

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/TobiSchelling/MyTube/internal/models"
)

// Extract computes the feature vector for a video. It has no side effects.
func Extract(v models.Video) models.FeatureVector {
	title := fold(v.Title)
	desc := fold(v.Description)

	views := max(v.ViewCount, 1)

	return models.FeatureVector{
		TitleLength:       utf8.RuneCountInString(v.Title),
		DescriptionLength: utf8.RuneCountInString(v.Description),
		ViewLikeRatio:     float64(v.LikeCount) / float64(views),
		EngagementScore:   float64(v.LikeCount+v.CommentCount) / float64(views),
		TitleSentiment:    Sentiment(title),
		Tutorial:          containsAny(tutorialTerms, title, desc),
		TimeConstraint:    containsAny(timeConstraintTerms, title),
		Beginner:          containsAny(beginnerTerms, title, desc),
		Tech:              containsAny(techTerms, title, desc),
		Project:           containsAny(projectTerms, title),
	}
}

// Sentiment returns the number of positive terms present in a folded title
// minus the number of negative terms present.
func Sentiment(foldedTitle string) int {
	score := 0
	for _, w := range positiveTerms {
		if strings.Contains(foldedTitle, w) {
			score++
		}
	}
	for _, w := range negativeTerms {
		if strings.Contains(foldedTitle, w) {
			score--
		}
	}
	return score
}

func containsAny(terms []string, texts ...string) bool {
	for _, term := range terms {
		for _, text := range texts {
			if strings.Contains(text, term) {
				return true
			}
		}
	}
	return false
}

// fold lowercases text. A Caser is stateful, so one is built per call.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}
