package oauth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistrySkipsUnconfigured(t *testing.T) {
	r := NewRegistry("http://localhost:3006",
		Credentials{ClientID: "gid", ClientSecret: "gsecret"},
		Credentials{},
		Credentials{ClientID: "nid", ClientSecret: "nsecret"},
	)

	_, ok := r.Get("google")
	assert.True(t, ok)
	_, ok = r.Get("kakao")
	assert.False(t, ok, "kakao has no credentials")
	_, ok = r.Get("naver")
	assert.True(t, ok)
	_, ok = r.Get("github")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"google", "naver"}, r.Names())
}

func TestAuthCodeURLCarriesStateAndCallback(t *testing.T) {
	r := NewRegistry("https://api.example.com",
		Credentials{ClientID: "gid", ClientSecret: "gsecret"},
		Credentials{ClientID: "kid", ClientSecret: "ksecret"},
		Credentials{ClientID: "nid", ClientSecret: "nsecret"},
	)

	for _, name := range []string{"google", "kakao", "naver"} {
		p, ok := r.Get(name)
		require.True(t, ok)

		u, err := url.Parse(p.AuthCodeURL("state-xyz"))
		require.NoError(t, err)

		q := u.Query()
		assert.Equal(t, "state-xyz", q.Get("state"))
		assert.Equal(t, "https://api.example.com/api/auth/"+name+"/callback", q.Get("redirect_uri"))
		assert.Equal(t, "code", q.Get("response_type"))
	}
}

func TestDecodeGoogleProfile(t *testing.T) {
	p, err := decodeGoogleProfile([]byte(`{
		"id": "10203040",
		"email": "alice@example.com",
		"name": "Alice",
		"picture": "https://pic/alice.png"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "10203040", p.ID)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "https://pic/alice.png", p.Picture)

	_, err = decodeGoogleProfile([]byte(`{"email":"no-id@example.com"}`))
	assert.Error(t, err)
}

func TestDecodeKakaoProfile(t *testing.T) {
	p, err := decodeKakaoProfile([]byte(`{
		"id": 987654321,
		"kakao_account": {
			"email": "bob@example.com",
			"profile": {
				"nickname": "Bob",
				"profile_image_url": "https://pic/bob.png"
			}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "987654321", p.ID)
	assert.Equal(t, "bob@example.com", p.Email)
	assert.Equal(t, "Bob", p.Name)
	assert.Equal(t, "https://pic/bob.png", p.Picture)

	t.Run("email optional", func(t *testing.T) {
		p, err := decodeKakaoProfile([]byte(`{"id": 5}`))
		require.NoError(t, err)
		assert.Equal(t, "5", p.ID)
		assert.Empty(t, p.Email)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := decodeKakaoProfile([]byte(`{"kakao_account":{}}`))
		assert.Error(t, err)
	})
}

func TestDecodeNaverProfile(t *testing.T) {
	p, err := decodeNaverProfile([]byte(`{
		"resultcode": "00",
		"message": "success",
		"response": {
			"id": "naver-uid-1",
			"email": "carol@example.com",
			"name": "Carol",
			"profile_image": "https://pic/carol.png"
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "naver-uid-1", p.ID)
	assert.Equal(t, "carol@example.com", p.Email)

	t.Run("error resultcode", func(t *testing.T) {
		_, err := decodeNaverProfile([]byte(`{"resultcode":"024","message":"Authentication failed"}`))
		assert.Error(t, err)
	})
}
