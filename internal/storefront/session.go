package storefront

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// Session holds the cookies that identify one shopper's cart.
// A nil *Session sends requests without cookies.
type Session struct {
	jar http.CookieJar
}

func NewSession() *Session {
	jar, _ := cookiejar.New(nil) // never fails with nil options
	return &Session{jar: jar}
}

func (s *Session) attach(req *http.Request) {
	if s == nil {
		return
	}

	for _, cookie := range s.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}
}

func (s *Session) store(u *url.URL, res *http.Response) {
	if s == nil {
		return
	}

	if cookies := res.Cookies(); len(cookies) > 0 {
		s.jar.SetCookies(u, cookies)
	}
}
