package models

// Fallback author fields for articles whose author relation is missing.
const (
	UnknownAuthorUsername    = "unknown"
	UnknownAuthorDisplayName = "Unknown Author"
)

// UnknownAuthor returns the placeholder profile used when an author is missing.
func UnknownAuthor() *Profile {
	return &Profile{
		Username:    UnknownAuthorUsername,
		DisplayName: UnknownAuthorDisplayName,
		AvatarURL:   "",
	}
}

// NormalizeArticle guarantees a non-nil author and tag list.
func NormalizeArticle(a *Article) *Article {
	if a == nil {
		return nil
	}
	if a.Author == nil {
		a.Author = UnknownAuthor()
	}
	if a.Tags == nil {
		a.Tags = StringList{}
	}
	return a
}

// NormalizeArticles applies NormalizeArticle to every element and drops nils.
func NormalizeArticles(in []*Article) []*Article {
	out := make([]*Article, 0, len(in))
	for _, a := range in {
		if a == nil {
			continue
		}
		out = append(out, NormalizeArticle(a))
	}
	return out
}

// NormalizeComments gives every comment a non-nil author.
func NormalizeComments(in []*Comment) []*Comment {
	for _, c := range in {
		if c != nil && c.Author == nil {
			c.Author = UnknownAuthor()
		}
	}
	return in
}
