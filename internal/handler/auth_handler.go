package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/nutrilog/internal/db"
	"github.com/nutrilog/internal/service"
)

const (
	sessionUIDKey      = "uid"
	sessionUsernameKey = "username"
)

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register 创建新账号
func (a *API) Register(c *gin.Context) {
	lang := a.requestLocale(c).Language

	var payload credentialsPayload
	if !bindJSON(c, &payload, msg(lang, "Invalid request", "请求参数不合法")) {
		return
	}

	user, err := a.auth.Register(c.Request.Context(), payload.Username, payload.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUserExists):
		respondError(c, http.StatusConflict, msg(lang, "Username is already taken", "用户名已存在"))
		return
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusBadRequest, msg(lang, "Username and password are required", "用户名和密码不能为空"))
		return
	default:
		log.Printf("[auth] register failed: %v", err)
		respondError(c, http.StatusInternalServerError, msg(lang, "Registration failed", "注册失败"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": userToPayload(user)})
}

// Login 校验账号后写入会话，并返回可用于 Authorization 头的令牌
func (a *API) Login(c *gin.Context) {
	lang := a.requestLocale(c).Language

	var payload credentialsPayload
	if !bindJSON(c, &payload, msg(lang, "Invalid request", "请求参数不合法")) {
		return
	}

	user, err := a.auth.Authenticate(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, msg(lang, "Invalid username or password", "用户名或密码错误"))
			return
		}
		log.Printf("[auth] login failed: %v", err)
		respondError(c, http.StatusInternalServerError, msg(lang, "Login failed", "登录失败"))
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUIDKey, user.UID)
	session.Set(sessionUsernameKey, user.Username)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, msg(lang, "Failed to save session", "会话保存失败"))
		return
	}

	token, expiresAt, err := a.auth.IssueToken(user)
	if err != nil {
		log.Printf("[auth] issue token failed: %v", err)
		respondError(c, http.StatusInternalServerError, msg(lang, "Login failed", "登录失败"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       userToPayload(user),
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// CurrentUser 返回当前登录用户
func (a *API) CurrentUser(c *gin.Context) {
	lang := a.requestLocale(c).Language

	user, err := a.auth.Lookup(c.Request.Context(), currentUser(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, msg(lang, "Please sign in", "请先登录"))
			return
		}
		log.Printf("[auth] lookup failed: %v", err)
		respondError(c, http.StatusInternalServerError, msg(lang, "Failed to load user", "加载用户失败"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToPayload(user)})
}

// AuthRequired 依次从 Bearer 令牌与会话中解析用户 UID
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
			scheme, raw, ok := strings.Cut(header, " ")
			if ok && strings.EqualFold(scheme, "Bearer") {
				uid, err := a.auth.ParseToken(raw)
				if err == nil {
					c.Set(userContextKey, uid)
					c.Next()
					return
				}
			}
			a.abortUnauthorized(c)
			return
		}

		session := sessions.Default(c)
		uid, _ := session.Get(sessionUIDKey).(string)
		if strings.TrimSpace(uid) == "" {
			a.abortUnauthorized(c)
			return
		}
		c.Set(userContextKey, uid)
		c.Next()
	}
}

func (a *API) abortUnauthorized(c *gin.Context) {
	lang := a.requestLocale(c).Language
	respondError(c, http.StatusUnauthorized, msg(lang, "Please sign in", "请先登录"))
	c.Abort()
}

func userToPayload(user *db.User) gin.H {
	return gin.H{
		"uid":      user.UID,
		"username": user.Username,
	}
}
