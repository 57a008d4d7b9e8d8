package parser_test

import (
	"testing"

	"github.com/nDmitry/stackfeed/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthorProfile_NextData(t *testing.T) {
	page := `<html><head><script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"publication":{"post_count":212,"author":{
	"handle":"casey",
	"name":"Casey Newton",
	"bio":"Writes about tech and democracy.",
	"imageUrl":"https://cdn.substack.com/avatar.png",
	"twitter_url":"https://twitter.com/caseynewton",
	"website":"https://www.platformer.news",
	"mastodon_url":"not a url"
}}}}}
</script></head><body>
<a href="https://twitter.com/caseynewton">Twitter</a>
<a href="https://bsky.app/profile/casey.bsky.social">Bluesky</a>
<a href="/archive">Archive</a>
</body></html>`

	profile := parser.ParseAuthorProfile([]byte(page), "https://platformer.substack.com/about")

	assert.Equal(t, "casey", profile.Handle)
	require.NotNil(t, profile.DisplayName)
	assert.Equal(t, "Casey Newton", *profile.DisplayName)
	require.NotNil(t, profile.Bio)
	assert.Equal(t, "Writes about tech and democracy.", *profile.Bio)
	require.NotNil(t, profile.AvatarURL)
	assert.Equal(t, "https://cdn.substack.com/avatar.png", *profile.AvatarURL)
	require.NotNil(t, profile.PostCountEstimate)
	assert.Equal(t, 212, *profile.PostCountEstimate)

	assert.Equal(t, []string{
		"https://bsky.app/profile/casey.bsky.social",
		"https://twitter.com/caseynewton",
		"https://www.platformer.news",
	}, profile.SocialLinks)
	assert.False(t, profile.Degraded)
}

func TestParseAuthorProfile_Markup(t *testing.T) {
	page := `<html><body>
<div class="profile">
	<img class="profile-avatar" src="/img/me.jpg">
	<h2 class="profile-name">  Jane   Writer </h2>
	<p class="profile-bio">Essays on <b>cities</b>.</p>
	<span>1,204 posts</span>
	<a href="https://x.com/jane">X</a>
	<a rel="me" href="https://social.example/@jane">Fediverse</a>
	<a rel="me" href="mailto:jane@example.com">Mail</a>
	<a href="https://x.com/jane#top">X again</a>
</div>
</body></html>`

	profile := parser.ParseAuthorProfile([]byte(page), "https://jane.substack.com/about")

	require.NotNil(t, profile.DisplayName)
	assert.Equal(t, "Jane Writer", *profile.DisplayName)
	require.NotNil(t, profile.Bio)
	assert.Equal(t, "Essays on cities.", *profile.Bio)
	require.NotNil(t, profile.AvatarURL)
	assert.Equal(t, "https://jane.substack.com/img/me.jpg", *profile.AvatarURL)
	require.NotNil(t, profile.PostCountEstimate)
	assert.Equal(t, 1204, *profile.PostCountEstimate)

	assert.Equal(t, []string{"https://social.example/@jane", "https://x.com/jane"}, profile.SocialLinks)
}

func TestParseAuthorProfile_AbsentFieldsStayNil(t *testing.T) {
	profile := parser.ParseAuthorProfile([]byte(`<html><body><p>Nothing to see.</p></body></html>`), "https://empty.substack.com/about")

	assert.Nil(t, profile.DisplayName)
	assert.Nil(t, profile.Bio)
	assert.Nil(t, profile.AvatarURL)
	assert.Nil(t, profile.PostCountEstimate)
	assert.NotNil(t, profile.SocialLinks)
	assert.Empty(t, profile.SocialLinks)
	assert.True(t, profile.Degraded)
	assert.ElementsMatch(t, []string{"display_name", "bio"}, profile.Missing)
}
