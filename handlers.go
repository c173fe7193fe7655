package main

import (
	"errors"
	"net/http"
	"strconv"
)

func (b *Blog) Home(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		b.render(w, r, http.StatusOK, "home.html", map[string]any{"Title": "Home"})
		return
	}

	posts, err := b.store.ListPostsByAuthor(r.Context(), user.UserID)
	if err != nil {
		b.serverError(w, r, "listing posts", err)
		return
	}

	b.render(w, r, http.StatusOK, "dashboard.html", map[string]any{
		"Title": "Dashboard",
		"Posts": posts,
	})
}

func (b *Blog) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}

	creds := credentialsFromForm(r.PostForm)
	errs := ValidateRegistration(creds.Username, creds.Password)

	errs, err := checkUsernameAvailable(r.Context(), b.store, creds.Username, errs)
	if err != nil {
		b.serverError(w, r, "checking username", err)
		return
	}

	var id int64
	if len(errs) == 0 {
		var hash string
		hash, err = b.hasher.Hash(creds.Password)
		if err != nil {
			b.serverError(w, r, "hashing password", err)
			return
		}
		id, err = b.store.InsertUser(r.Context(), creds.Username, hash)
		if errors.Is(err, ErrUsernameTaken) {
			errs = append(errs, msgUsernameTaken)
		} else if err != nil {
			b.serverError(w, r, "inserting user", err)
			return
		}
	}

	if len(errs) > 0 {
		b.metrics.Registrations.WithLabelValues("rejected").Inc()
		b.render(w, r, http.StatusBadRequest, "home.html", map[string]any{
			"Title":    "Home",
			"Errors":   errs,
			"Username": creds.Username,
		})
		return
	}

	b.metrics.Registrations.WithLabelValues("created").Inc()
	b.logger.InfoContext(r.Context(), "user registered", "user_id", id, "username", creds.Username)

	if !b.startSession(w, r, Identity{UserID: id, Username: creds.Username}) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (b *Blog) LoginForm(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, http.StatusOK, "login.html", map[string]any{"Title": "Login"})
}

func (b *Blog) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}

	creds := credentialsFromForm(r.PostForm)
	if errs := ValidateLogin(creds.Username, creds.Password); len(errs) > 0 {
		b.rejectLogin(w, r, creds.Username)
		return
	}

	user, err := b.store.FindUserByUsername(r.Context(), creds.Username)
	if err != nil {
		b.serverError(w, r, "finding user", err)
		return
	}

	// Compare against a throwaway hash for unknown users so both failures
	// cost the same.
	hash := b.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	valid := b.hasher.Verify(creds.Password, hash)
	if user == nil || !valid {
		b.rejectLogin(w, r, creds.Username)
		return
	}

	b.metrics.Logins.WithLabelValues("success").Inc()
	if !b.startSession(w, r, Identity{UserID: user.ID, Username: user.Username}) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (b *Blog) rejectLogin(w http.ResponseWriter, r *http.Request, username string) {
	b.metrics.Logins.WithLabelValues("invalid").Inc()
	b.render(w, r, http.StatusUnauthorized, "login.html", map[string]any{
		"Title":    "Login",
		"Errors":   []string{msgInvalidLogin},
		"Username": username,
	})
}

func (b *Blog) startSession(w http.ResponseWriter, r *http.Request, user Identity) bool {
	token, _, err := b.sessions.Issue(user)
	if err != nil {
		b.serverError(w, r, "issuing session", err)
		return false
	}
	b.sessions.SetCookie(w, token)
	return true
}

func (b *Blog) Logout(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}
	b.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (b *Blog) CreatePostForm(w http.ResponseWriter, r *http.Request) {
	b.render(w, r, http.StatusOK, "create-post.html", map[string]any{
		"Title": "Create post",
		"Post":  PostInput{},
	})
}

func (b *Blog) CreatePost(w http.ResponseWriter, r *http.Request) {
	if !parseFormWithCSRF(w, r) {
		return
	}

	in := postInputFromForm(r.PostForm)
	clean, errs := ValidatePost(in.Title, in.Body)
	if len(errs) > 0 {
		b.metrics.PostChanges.WithLabelValues("create", "rejected").Inc()
		b.render(w, r, http.StatusBadRequest, "create-post.html", map[string]any{
			"Title":  "Create post",
			"Errors": errs,
			"Post":   clean,
		})
		return
	}

	user, _ := currentUser(r)
	id, err := b.store.InsertPost(r.Context(), clean.Title, clean.Body, user.UserID, b.now())
	if err != nil {
		b.serverError(w, r, "inserting post", err)
		return
	}

	b.metrics.PostChanges.WithLabelValues("create", "ok").Inc()
	http.Redirect(w, r, "/post/"+strconv.FormatInt(id, 10), http.StatusSeeOther)
}

func (b *Blog) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		deny(w, r)
		return
	}

	post, err := b.store.FindPostByID(r.Context(), id)
	if err != nil {
		b.serverError(w, r, "finding post", err)
		return
	}
	if post == nil {
		deny(w, r)
		return
	}

	user, ok := currentUser(r)
	b.render(w, r, http.StatusOK, "single-post.html", map[string]any{
		"Title":    post.Title,
		"Post":     post,
		"IsAuthor": ok && user.UserID == post.AuthorID,
	})
}

// ownedPost loads the post named in the path when the current user wrote it.
// Otherwise it responds and returns false; a missing post, a malformed id and
// someone else's post all get the anonymous response.
func (b *Blog) ownedPost(w http.ResponseWriter, r *http.Request) (*Post, bool) {
	user, ok := currentUser(r)
	if !ok {
		deny(w, r)
		return nil, false
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		deny(w, r)
		return nil, false
	}

	post, err := b.store.FindPostByID(r.Context(), id)
	if err != nil {
		b.serverError(w, r, "finding post", err)
		return nil, false
	}
	if post == nil || post.AuthorID != user.UserID {
		deny(w, r)
		return nil, false
	}
	return post, true
}

func (b *Blog) EditPostForm(w http.ResponseWriter, r *http.Request) {
	post, ok := b.ownedPost(w, r)
	if !ok {
		return
	}
	b.render(w, r, http.StatusOK, "edit-post.html", map[string]any{
		"Title": "Edit post",
		"Post":  post,
	})
}

func (b *Blog) EditPost(w http.ResponseWriter, r *http.Request) {
	post, ok := b.ownedPost(w, r)
	if !ok {
		return
	}
	if !parseFormWithCSRF(w, r) {
		return
	}

	in := postInputFromForm(r.PostForm)
	clean, errs := ValidatePost(in.Title, in.Body)
	if len(errs) > 0 {
		b.metrics.PostChanges.WithLabelValues("update", "rejected").Inc()
		post.Title, post.Body = clean.Title, clean.Body
		b.render(w, r, http.StatusBadRequest, "edit-post.html", map[string]any{
			"Title":  "Edit post",
			"Errors": errs,
			"Post":   post,
		})
		return
	}

	if err := b.store.UpdatePost(r.Context(), post.ID, clean.Title, clean.Body); err != nil {
		b.serverError(w, r, "updating post", err)
		return
	}

	b.metrics.PostChanges.WithLabelValues("update", "ok").Inc()
	http.Redirect(w, r, "/post/"+strconv.FormatInt(post.ID, 10), http.StatusSeeOther)
}

func (b *Blog) DeletePost(w http.ResponseWriter, r *http.Request) {
	post, ok := b.ownedPost(w, r)
	if !ok {
		return
	}
	if !parseFormWithCSRF(w, r) {
		return
	}

	if err := b.store.DeletePost(r.Context(), post.ID); err != nil {
		b.serverError(w, r, "deleting post", err)
		return
	}

	b.metrics.PostChanges.WithLabelValues("delete", "ok").Inc()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (b *Blog) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logError(r.Context(), b.logger, msg, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
