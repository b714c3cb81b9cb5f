package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	. "github.com/trezcool/daftari/apps/api/echo"
	"github.com/trezcool/daftari/core/user"
	emailsvc "github.com/trezcool/daftari/services/email"
	testutil "github.com/trezcool/daftari/tests"
)

func Test_userApi_login(t *testing.T) {
	resetUsers(t)

	testutil.CreateUser(t, usrRepo, "Awa Kalenga", "awakal", "awa@test.cd", "LeP@ss123", nil, true)
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog01", "ndog@test.cd", "LeP@ss123", nil, false)

	tests := []httpTest{
		{
			name: "Empty body", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "Unknown user", body: marchallObj(t, LoginRequest{Username: "lol", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Wrong password", body: marchallObj(t, LoginRequest{Username: "awakal", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Deactivated account", body: marchallObj(t, LoginRequest{Username: "ndog01", Password: "LeP@ss123"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Login with username", func(t *testing.T) {
		body := marchallObj(t, LoginRequest{Username: "awakal", Password: "LeP@ss123"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if resp.Token == "" {
			t.Error("failed! empty token")
		}

		// lastLogin is set
		usr, err := usrRepo.GetUserByUsername("awakal")
		if err != nil {
			t.Fatalf("GetUserByUsername() failed: %v", err)
		}
		if usr.LastLogin.IsZero() {
			t.Error("failed! lastLogin not set")
		}
	})

	t.Run("Login with email", func(t *testing.T) {
		body := marchallObj(t, LoginRequest{Username: "AWA@test.cd", Password: "LeP@ss123"})
		req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusOK, rec.Body.String())
		}
	})
}

func Test_userApi_tokenRefresh(t *testing.T) {
	resetUsers(t)

	usr := testutil.CreateUser(t, usrRepo, "Awa Kalenga", "awakal", "awa@test.cd", "LeP@ss123", nil, true)
	ndog := testutil.CreateUser(t, usrRepo, "N Dog", "ndog01", "ndog@test.cd", "LeP@ss123", nil, false)

	t.Run("Auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Refresh", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if resp.Token == "" {
			t.Error("failed! empty token")
		}
	})

	t.Run("Deactivated account", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, ndog))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_userQuery(t *testing.T) {
	resetUsers(t)

	path := func(search string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	usr1 := testutil.CreateUser(t, usrRepo, "User", "user01", "usr1@test.cd", "", nil, true)
	stud := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog01", "ndog@test.cd", "", []string{user.RoleStudent}, false)

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, stud),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken,
			wantData: marchallList(t, usr1, stud, admin, teacher, naughty),
		},
		{name: "search (unknown)", path: path("lol", nil), token: adminToken, wantData: empty},
		{name: "search=hero", path: path("hero", nil), token: adminToken, wantData: marchallList(t, stud)},
		{name: "search on email", path: path("ndog@", nil), token: adminToken, wantData: marchallList(t, naughty)},
		{
			name: "role=student:", path: path("", nil, user.RoleStudent),
			token: adminToken, wantData: marchallList(t, stud, naughty),
		},
		{
			name: "role=teacher:,admin:", path: path("", nil, user.RoleTeacher, user.RoleAdmin),
			token: adminToken, wantData: marchallList(t, admin, teacher),
		},
		{
			name: "is_active=true", path: path("", bPtr(true)),
			token: adminToken, wantData: marchallList(t, usr1, stud, admin, teacher),
		},
		{name: "is_active=false", path: path("", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{
			name: "combo", path: path("ndog", bPtr(false), user.RoleStudent),
			token: adminToken, wantData: marchallList(t, naughty),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userCrud(t *testing.T) {
	resetUsers(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdminPrincipal}, true)
	stud := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)
	studToken := getToken(t, stud)

	var created user.User

	t.Run("Register requires admin", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{Name: "New Guy", Username: "newguy", Password: "LeP@ss123", PasswordConfirm: "LeP@ss123"})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", studToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Register", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{
			Name: "New Guy", Username: "newguy", Email: "newguy@test.cd",
			Password: "LeP@ss123", PasswordConfirm: "LeP@ss123",
			Roles: []string{user.RoleTeacher},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if created.ID == "" || !created.IsActive {
			t.Errorf("failed! unexpected user: %+v", created)
		}
	})

	t.Run("Register duplicate username", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{
			Name: "Copy Cat", Username: "newguy", Password: "LeP@ss123", PasswordConfirm: "LeP@ss123",
		})
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", adminToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Retrieve (owner)", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, stud)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+stud.ID, studToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Retrieve (other) not found", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+admin.ID, studToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Update self cannot change roles", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdmin}})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+stud.ID, studToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Update self name", func(t *testing.T) {
		body := marchallObj(t, user.UpdateUser{Name: "Hero Mwepu"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+stud.ID, studToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if updated.Name != "Hero Mwepu" || updated.Username != "hero01" {
			t.Errorf("failed! unexpected user: %+v", updated)
		}
	})

	t.Run("Deactivate (admin)", func(t *testing.T) {
		isActive := false
		body := marchallObj(t, user.UpdateUser{IsActive: &isActive})
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+created.ID, adminToken, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusOK, rec.Body.String())
		}
		usr, err := usrRepo.GetUserByID(created.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed: %v", err)
		}
		if usr.IsActive {
			t.Error("failed! user still active")
		}
	})

	t.Run("Destroy requires admin", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+stud.ID, studToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("No self destroy", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, adminToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+created.ID, adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusNoContent, rec.Body.String())
		}
		if _, err := usrRepo.GetUserByID(created.ID); err != user.ErrNotFound {
			t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
		}
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	resetUsers(t)

	testutil.CreateUser(t, usrRepo, "Awa Kalenga", "awakal", "awa@test.cd", "LeP@ss123", nil, true)

	success := SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	}

	t.Run("Request (known email)", func(t *testing.T) {
		sent := len(emailsvc.SentMessages)
		body := marchallObj(t, PasswordResetRequest{Email: "awa@test.cd"})
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, success)}
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		if got := len(emailsvc.SentMessages); got != sent+1 {
			t.Errorf("failed! %d mails sent, want %d", got-sent, 1)
		}
	})

	t.Run("Request (unknown email) does not leak", func(t *testing.T) {
		sent := len(emailsvc.SentMessages)
		body := marchallObj(t, PasswordResetRequest{Email: "who@test.cd"})
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, success)}
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		if got := len(emailsvc.SentMessages); got != sent {
			t.Errorf("failed! %d mails sent, want 0", got-sent)
		}
	})

	t.Run("Confirm", func(t *testing.T) {
		if len(emailsvc.SentMessages) == 0 {
			t.Fatal("no reset mail sent")
		}
		data := emailsvc.SentMessages[len(emailsvc.SentMessages)-1].TemplateData.(struct {
			User  user.User
			UID   string
			Token string
		})

		body := marchallObj(t, user.ResetUserPassword{
			Token: data.Token, UID: data.UID, Password: "NewP@ss123", PasswordConfirm: "NewP@ss123",
		})
		tt := httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		}
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		// the new password works
		login := marchallObj(t, LoginRequest{Username: "awakal", Password: "NewP@ss123"})
		req, rec = newRequest(http.MethodPost, "/v1/users/login", login)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusOK, rec.Body.String())
		}
	})

	t.Run("Confirm with bogus token", func(t *testing.T) {
		body := marchallObj(t, user.ResetUserPassword{
			Token: "lol-token", UID: "lol-uid", Password: "NewP@ss123", PasswordConfirm: "NewP@ss123",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v; data = %v", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})
}
