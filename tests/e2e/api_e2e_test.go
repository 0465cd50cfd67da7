package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/civicsite/internal/db"
	"github.com/civicsite/internal/handler"
	"github.com/civicsite/internal/router"
	"github.com/civicsite/internal/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const adminPassword = "team-secret"

type e2eSuite struct {
	handler http.Handler
	public  httpClient
	admin   httpClient
	baseURL string
	cms     *fakeCMS
	gdb     *gorm.DB
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

// fakeCMS 模拟内容平台的 mutate 和 query 接口
type fakeCMS struct {
	mu   sync.Mutex
	next int
	docs []map[string]any
}

func (f *fakeCMS) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/data/mutate/", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Mutations []struct {
				Create map[string]any `json:"create"`
			} `json:"mutations"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.Mutations) == 0 {
			http.Error(w, "bad mutation", http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.next++
		id := fmt.Sprintf("doc-%d", f.next)
		doc := payload.Mutations[0].Create
		doc["_id"] = id
		f.docs = append(f.docs, doc)
		f.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{{"id": id}},
		})
	})
	mux.HandleFunc("/data/query/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if raw := r.URL.Query().Get("$slug"); raw != "" {
			slug := strings.Trim(raw, `"`)
			for _, doc := range f.docs {
				if s, ok := doc["slug"].(map[string]any); ok && s["current"] == slug {
					json.NewEncoder(w).Encode(map[string]any{"result": projectDoc(doc)})
					return
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"result": nil})
			return
		}

		results := make([]map[string]any, 0, len(f.docs))
		for _, doc := range f.docs {
			results = append(results, projectDoc(doc))
		}
		json.NewEncoder(w).Encode(map[string]any{"result": results})
	})
	return mux
}

func projectDoc(doc map[string]any) map[string]any {
	out := map[string]any{
		"_id":      doc["_id"],
		"title":    doc["title"],
		"category": doc["category"],
		"excerpt":  doc["excerpt"],
		"readTime": doc["readTime"],
		"tags":     doc["tags"],
	}
	if s, ok := doc["slug"].(map[string]any); ok {
		out["slug"] = s["current"]
	}
	if p, ok := doc["publishedAt"].(string); ok {
		out["publishedAt"] = p
	}
	return out
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	cms := &fakeCMS{}
	cmsServer := httptest.NewServer(cms.handler())
	t.Cleanup(cmsServer.Close)

	cmsClient := service.NewCMSClient(cmsServer.URL, "production", "cms-token")
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	api := handler.NewAPI(handler.Deps{
		DB:                gdb,
		Pending:           service.NewPendingPostService(gdb, cmsClient),
		Batches:           service.NewPostBatchService(gdb),
		CMS:               cmsClient,
		AdminPasswordHash: hash,
	})
	r := router.SetupRouter(api, "e2e-session-secret")

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return &e2eSuite{
		handler: r,
		public:  newLocalClient(r, false),
		admin:   newLocalClient(r, true),
		baseURL: "http://civicsite.test",
		cms:     cms,
		gdb:     gdb,
	}
}

func (s *e2eSuite) request(t *testing.T, client httpClient, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	resp, body := s.request(t, s.admin, http.MethodPost, "/admin/login",
		map[string]string{"password": adminPassword})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %s", resp.StatusCode, body)
	}
}

func TestE2E_ModerationAndClaimFlows(t *testing.T) {
	suite := newE2ESuite(t)

	// 未登录访问后台接口应被拒绝
	resp, _ := suite.request(t, suite.public, http.MethodGet, "/admin/api/pending", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without login, got %d", resp.StatusCode)
	}

	suite.login(t)

	t.Run("moderation flow", suite.testModerationFlow)
	t.Run("claim flow", suite.testClaimFlow)
	t.Run("contact form", suite.testContactForm)
}

func (s *e2eSuite) testModerationFlow(t *testing.T) {
	resp, body := s.request(t, s.admin, http.MethodPost, "/admin/api/pending", map[string]any{
		"title":        "Rebuilding a permit portal",
		"category":     "case-studies",
		"excerpt":      "How one city cut abandonment in half.",
		"tags":         []string{"permitting", "case-study"},
		"bodyMarkdown": "## The problem\n\nApplicants dropped out at **question 3**.\n\nRead the [audit](https://civicsite.example/audit).",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create pending: %d %s", resp.StatusCode, body)
	}
	var created db.PendingPost
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if len(created.BodyDocument) == 0 {
		t.Fatalf("pending post must carry a converted document")
	}

	resp, body = s.request(t, s.admin, http.MethodGet, "/admin/api/pending/"+created.ID+"/preview", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview: %d %s", resp.StatusCode, body)
	}
	var preview struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(body, &preview); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if !strings.Contains(preview.HTML, "<strong>question 3</strong>") {
		t.Fatalf("preview must render markdown, got %q", preview.HTML)
	}

	resp, body = s.request(t, s.admin, http.MethodPost, "/admin/api/pending/"+created.ID+"/approve",
		map[string]string{"publishStatus": "published"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: %d %s", resp.StatusCode, body)
	}
	var approved struct {
		DocumentID string `json:"documentId"`
		Slug       string `json:"slug"`
	}
	if err := json.Unmarshal(body, &approved); err != nil {
		t.Fatalf("decode approve: %v", err)
	}
	if approved.DocumentID == "" {
		t.Fatalf("approve must return the cms document id")
	}

	// 审核通过后队列应为空，且不能重复审批
	resp, _ = s.request(t, s.admin, http.MethodPost, "/admin/api/pending/"+created.ID+"/approve",
		map[string]string{"publishStatus": "published"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second approve must be 404, got %d", resp.StatusCode)
	}

	// 公开博客代理应能读到刚发布的文章
	resp, body = s.request(t, s.public, http.MethodGet, "/api/posts", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list published: %d %s", resp.StatusCode, body)
	}
	var listing struct {
		Posts []service.CMSPost `json:"posts"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	if len(listing.Posts) != 1 || listing.Posts[0].Slug != approved.Slug {
		t.Fatalf("unexpected published posts: %+v", listing.Posts)
	}

	resp, body = s.request(t, s.public, http.MethodGet, "/api/posts/"+approved.Slug, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get published: %d %s", resp.StatusCode, body)
	}
	resp, _ = s.request(t, s.public, http.MethodGet, "/api/posts/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing slug must be 404, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testClaimFlow(t *testing.T) {
	resp, body := s.request(t, s.admin, http.MethodPost, "/admin/api/batches", map[string]any{
		"productName": "Permit Tracker",
		"productUrl":  "https://permits.example",
		"posts": []map[string]string{
			{"content": "First post", "hook": "Hook one"},
			{"content": "Second post", "hook": "Hook two"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save batch: %d %s", resp.StatusCode, body)
	}
	var batch db.PostBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		t.Fatalf("decode batch: %v", err)
	}

	claimPath := "/admin/api/batches/" + batch.ID + "/posts/" + strconv.Itoa(0) + "/claim"
	resp, body = s.request(t, s.admin, http.MethodPost, claimPath, map[string]string{"name": "Alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim: %d %s", resp.StatusCode, body)
	}
	var claimed db.BatchPost
	if err := json.Unmarshal(body, &claimed); err != nil {
		t.Fatalf("decode claim: %v", err)
	}
	if claimed.CopiedBy != "Alice" {
		t.Fatalf("unexpected claimant %q", claimed.CopiedBy)
	}

	resp, _ = s.request(t, s.admin, http.MethodPost, claimPath, map[string]string{"name": "Bob"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second claim must be 409, got %d", resp.StatusCode)
	}

	// 其他帖子不受影响
	resp, _ = s.request(t, s.admin, http.MethodPost,
		"/admin/api/batches/"+batch.ID+"/posts/1/claim", map[string]string{"name": "Bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("independent claim must succeed, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testContactForm(t *testing.T) {
	resp, body := s.request(t, s.public, http.MethodPost, "/api/contact", map[string]string{
		"name":    "Dana",
		"email":   "dana@agency.gov",
		"message": "We need a discovery sprint.",
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("contact: %d %s", resp.StatusCode, body)
	}

	var count int64
	s.gdb.Model(&db.ContactMessage{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 stored contact message, got %d", count)
	}
}
