package userdelivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/arsy786/eagle-bank/internal/domain"
	"github.com/arsy786/eagle-bank/pkg/errorspkg"
	"github.com/arsy786/eagle-bank/pkg/randompkg"
	"github.com/arsy786/eagle-bank/pkg/tokenpkg"
	"github.com/arsy786/eagle-bank/pkg/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func randomUser() (domain.UserWithoutPassword, string) {
	password := randompkg.String(10)

	user := domain.UserWithoutPassword{
		Username:  randompkg.Owner(),
		FullName:  randompkg.Owner(),
		Email:     randompkg.Email(),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}

	return user, password
}

func newTestHandler(t *testing.T, service Service) *Handler {
	t.Helper()

	tokenMaker, err := tokenpkg.NewJWTMaker(randompkg.String(32))
	if err != nil {
		t.Fatalf("tokenpkg.NewJWTMaker() returned error: %v", err)
	}

	return NewHandler(service, tokenMaker, time.Minute)
}

func TestCreate(t *testing.T) {
	user, password := randomUser()

	type requestBody struct {
		Username string `json:"username"`
		Password string `json:"password"`
		FullName string `json:"fullname"`
		Email    string `json:"email"`
	}

	testCases := []struct {
		name           string
		requestBody    requestBody
		buildStubs     func(userService *MockService)
		wantStatusCode int
		wantError      string
		checkData      func(res web.Response)
	}{
		{
			name: "OK",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
				FullName: user.FullName,
				Email:    user.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(user, nil)
			},
			wantStatusCode: http.StatusCreated,
			checkData: func(res web.Response) {
				if res.AccessToken == "" {
					t.Error("res.AccessToken is empty, want access token")
				}

				if res.AccessTokenExpiresAt.Before(time.Now()) {
					t.Errorf("res.AccessTokenExpiresAt=%v, want future time", res.AccessTokenExpiresAt)
				}

				got, ok := res.Data.(*userData)
				if !ok {
					t.Errorf(`res.Data=%v, failed type conversion`, res.Data)
				}

				compareCreatedAt := cmpopts.EquateApproxTime(time.Second)
				if diff := cmp.Diff(user, got.User, compareCreatedAt); diff != "" {
					t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "InvalidUsername",
			requestBody: requestBody{
				Username: "no spaces allowed",
				Password: password,
				FullName: user.FullName,
				Email:    user.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Username field must contain only letters and numbers",
		},
		{
			name: "ShortPassword",
			requestBody: requestBody{
				Username: user.Username,
				Password: "12345",
				FullName: user.FullName,
				Email:    user.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Password field must be at least 6 characters",
		},
		{
			name: "InvalidEmail",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
				FullName: user.FullName,
				Email:    "not-an-email",
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Email field must be a valid email address",
		},
		{
			name: "UsernameAlreadyExists",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
				FullName: user.FullName,
				Email:    user.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUsernameAlreadyExists)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrUsernameAlreadyExists.Error(),
		},
		{
			name: "EmailAlreadyExists",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
				FullName: user.FullName,
				Email:    user.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrEmailAlreadyExists)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrEmailAlreadyExists.Error(),
		},
		{
			name: "InternalServerError",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
				FullName: user.FullName,
				Email:    user.Email,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					Create(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password), gomock.Eq(user.FullName), gomock.Eq(user.Email)).
					Times(1).
					Return(domain.UserWithoutPassword{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			userService := NewMockService(ctrl)
			userHandler := newTestHandler(t, userService)

			server := gin.New()
			server.POST("/users", userHandler.Create)

			tc.buildStubs(userService)

			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			req, err := http.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := web.Response{Data: &userData{}}
			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Errorf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusCreated {
				if res.Error != tc.wantError {
					t.Errorf(`res.Error=%q, want %q`, res.Error, tc.wantError)
				}
			} else {
				tc.checkData(res)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	user, password := randomUser()

	type requestBody struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	testCases := []struct {
		name           string
		requestBody    requestBody
		buildStubs     func(userService *MockService)
		wantStatusCode int
		wantError      string
		checkData      func(res web.Response)
	}{
		{
			name: "OK",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(user, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData: func(res web.Response) {
				if res.AccessToken == "" {
					t.Error("res.AccessToken is empty, want access token")
				}

				got, ok := res.Data.(*userData)
				if !ok {
					t.Errorf(`res.Data=%v, failed type conversion`, res.Data)
				}

				compareCreatedAt := cmpopts.EquateApproxTime(time.Second)
				if diff := cmp.Diff(user, got.User, compareCreatedAt); diff != "" {
					t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "UserNotFound",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrUserNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrUserNotFound.Error(),
		},
		{
			name: "WrongPassword",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(domain.UserWithoutPassword{}, domain.ErrWrongPassword)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      domain.ErrWrongPassword.Error(),
		},
		{
			name: "MissingPassword",
			requestBody: requestBody{
				Username: user.Username,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Password field is required",
		},
		{
			name: "InternalServerError",
			requestBody: requestBody{
				Username: user.Username,
				Password: password,
			},
			buildStubs: func(userService *MockService) {
				userService.EXPECT().
					CheckPassword(gomock.Any(), gomock.Eq(user.Username), gomock.Eq(password)).
					Times(1).
					Return(domain.UserWithoutPassword{}, errorspkg.ErrInternal)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			userService := NewMockService(ctrl)
			userHandler := newTestHandler(t, userService)

			server := gin.New()
			server.POST("/users/login", userHandler.Login)

			tc.buildStubs(userService)

			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			req, err := http.NewRequest(http.MethodPost, "/users/login", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := web.Response{Data: &userData{}}
			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Errorf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if res.Error != tc.wantError {
					t.Errorf(`res.Error=%q, want %q`, res.Error, tc.wantError)
				}
			} else {
				tc.checkData(res)
			}
		})
	}
}
