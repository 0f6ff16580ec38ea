// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

//go:build integration

package api_test

import (
	"fmt"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/lentos/lentos/internal/auth"
	"github.com/lentos/lentos/internal/todo"
	"github.com/lentos/lentos/internal/user"
)

var _ = Describe("Accounts", func() {
	BeforeEach(func() {
		cleanupTables()
	})

	It("registers, logs in and returns the profile without the password hash", func() {
		alice := newClient()
		alice.signup("Alice", "alice@example.com", "secret")

		resp := alice.do(http.MethodGet, "/users", nil)
		Expect(resp.status).To(Equal(http.StatusOK))
		Expect(string(resp.body)).NotTo(ContainSubstring("password"))

		var profile user.User
		resp.decode(&profile)
		Expect(profile.ID).To(BeNumerically(">", 0))
		Expect(profile.Email).To(Equal("alice@example.com"))
	})

	It("rejects a second registration with the same email in another case", func() {
		c := newClient()
		c.signup("Alice", "alice@example.com", "secret")

		resp := c.do(http.MethodPost, "/users/register", map[string]string{
			"name": "Other", "email": "ALICE@example.com", "password": "x",
		})
		Expect(resp.status).To(Equal(http.StatusConflict))
		Expect(resp.message()).To(Equal(user.ConflictMessage))
	})

	It("answers unknown email and wrong password identically", func() {
		c := newClient()
		c.signup("Alice", "alice@example.com", "secret")

		wrong := newClient().do(http.MethodPost, "/users/login",
			map[string]string{"email": "alice@example.com", "password": "nope"})
		unknown := newClient().do(http.MethodPost, "/users/login",
			map[string]string{"email": "nobody@example.com", "password": "secret"})

		Expect(wrong.status).To(Equal(http.StatusUnauthorized))
		Expect(unknown.status).To(Equal(wrong.status))
		Expect(unknown.body).To(Equal(wrong.body))
		Expect(wrong.message()).To(Equal(auth.InvalidCredentialsMessage))
	})

	It("requires a session for protected routes", func() {
		resp := newClient().do(http.MethodGet, "/todos", nil)
		Expect(resp.status).To(Equal(http.StatusUnauthorized))
		Expect(resp.message()).To(Equal(auth.ErrUnauthorized.Message))
	})

	It("ends the session on logout", func() {
		c := newClient()
		c.signup("Alice", "alice@example.com", "secret")

		Expect(c.do(http.MethodPost, "/users/logout", nil).status).To(Equal(http.StatusOK))
		Expect(c.do(http.MethodGet, "/users", nil).status).To(Equal(http.StatusUnauthorized))
	})

	It("updates the account and accepts the new password", func() {
		c := newClient()
		c.signup("Alice", "alice@example.com", "secret")

		resp := c.do(http.MethodPut, "/users", map[string]string{"name": "Alicia", "password": "changed"})
		Expect(resp.status).To(Equal(http.StatusOK), string(resp.body))

		var updated user.User
		resp.decode(&updated)
		Expect(updated.Name).To(Equal("Alicia"))

		login := newClient().do(http.MethodPost, "/users/login",
			map[string]string{"email": "alice@example.com", "password": "changed"})
		Expect(login.status).To(Equal(http.StatusOK))
	})

	It("deletes the account together with its todos", func() {
		c := newClient()
		c.signup("Alice", "alice@example.com", "secret")
		Expect(c.do(http.MethodPost, "/todos", map[string]string{"title": "Milk"}).status).
			To(Equal(http.StatusOK))

		Expect(c.do(http.MethodDelete, "/users", nil).status).To(Equal(http.StatusOK))
		Expect(c.do(http.MethodGet, "/users", nil).status).To(Equal(http.StatusUnauthorized))

		var todos int
		Expect(env.pool.QueryRow(env.ctx, "SELECT COUNT(*) FROM todos").Scan(&todos)).To(Succeed())
		Expect(todos).To(BeZero())
	})

	It("ends every session of a deleted account", func() {
		first := newClient()
		first.signup("Alice", "alice@example.com", "secret")
		second := newClient()
		Expect(second.do(http.MethodPost, "/users/login",
			map[string]string{"email": "alice@example.com", "password": "secret"}).status).
			To(Equal(http.StatusOK))
		bob := newClient()
		bob.signup("Bob", "bob@example.com", "secret")

		Expect(first.do(http.MethodDelete, "/users", nil).status).To(Equal(http.StatusOK))

		for _, path := range []string{"/users", "/todos"} {
			resp := second.do(http.MethodGet, path, nil)
			Expect(resp.status).To(Equal(http.StatusUnauthorized), path)
			Expect(resp.message()).To(Equal(auth.ErrUnauthorized.Message))
		}
		resp := second.do(http.MethodPost, "/todos", map[string]string{"title": "Milk"})
		Expect(resp.status).To(Equal(http.StatusUnauthorized))

		Expect(bob.do(http.MethodGet, "/users", nil).status).To(Equal(http.StatusOK))

		var sessions int
		Expect(env.pool.QueryRow(env.ctx, "SELECT COUNT(*) FROM sessions").Scan(&sessions)).To(Succeed())
		Expect(sessions).To(Equal(1))
	})
})

var _ = Describe("Todos", func() {
	var alice, bob *client

	BeforeEach(func() {
		cleanupTables()
		alice = newClient()
		alice.signup("Alice", "alice@example.com", "secret")
		bob = newClient()
		bob.signup("Bob", "bob@example.com", "secret")
	})

	create := func(c *client, title string) todo.Todo {
		resp := c.do(http.MethodPost, "/todos", map[string]string{"title": title, "description": "d"})
		Expect(resp.status).To(Equal(http.StatusOK), string(resp.body))
		var t todo.Todo
		resp.decode(&t)
		return t
	}

	It("returns an empty list before anything is created", func() {
		resp := alice.do(http.MethodGet, "/todos", nil)
		Expect(resp.status).To(Equal(http.StatusOK))
		Expect(string(resp.body)).To(MatchJSON("[]"))
	})

	It("creates, lists, updates and deletes a todo", func() {
		created := create(alice, "Milk")
		Expect(created.IsDone).To(BeFalse())

		var list []todo.Todo
		alice.do(http.MethodGet, "/todos", nil).decode(&list)
		Expect(list).To(HaveLen(1))
		Expect(list[0].Title).To(Equal("Milk"))

		resp := alice.do(http.MethodPut, "/todos", map[string]any{"id": created.ID, "is_done": true})
		Expect(resp.status).To(Equal(http.StatusOK), string(resp.body))
		var updated todo.Todo
		resp.decode(&updated)
		Expect(updated.IsDone).To(BeTrue())
		Expect(updated.Title).To(Equal("Milk"))

		path := fmt.Sprintf("/todos/%d", created.ID)
		Expect(alice.do(http.MethodDelete, path, nil).status).To(Equal(http.StatusOK))

		resp = alice.do(http.MethodGet, path, nil)
		Expect(resp.status).To(Equal(http.StatusNotFound))
		Expect(resp.message()).To(Equal("Todo was not found"))
	})

	It("leaves every field but updated_at alone on an empty update", func() {
		created := create(alice, "Milk")

		resp := alice.do(http.MethodPut, "/todos", map[string]any{"id": created.ID})
		Expect(resp.status).To(Equal(http.StatusOK), string(resp.body))
		var updated todo.Todo
		resp.decode(&updated)

		Expect(updated.ID).To(Equal(created.ID))
		Expect(updated.Title).To(Equal(created.Title))
		Expect(updated.Description).To(Equal(created.Description))
		Expect(updated.IsDone).To(Equal(created.IsDone))
		Expect(updated.Owner).To(Equal(created.Owner))
		Expect(updated.CreatedAt).To(BeTemporally("==", created.CreatedAt))
		Expect(updated.UpdatedAt).To(BeTemporally(">=", created.UpdatedAt))

		var fetched todo.Todo
		alice.do(http.MethodGet, fmt.Sprintf("/todos/%d", created.ID), nil).decode(&fetched)
		Expect(fetched.Title).To(Equal("Milk"))
		Expect(fetched.Description).To(Equal("d"))
		Expect(fetched.IsDone).To(BeFalse())
	})

	It("keeps each user's todos private", func() {
		mine := create(alice, "Alice's")
		path := fmt.Sprintf("/todos/%d", mine.ID)

		resp := bob.do(http.MethodGet, path, nil)
		Expect(resp.status).To(Equal(http.StatusForbidden))
		Expect(resp.message()).To(Equal("You have no permission to receive this Todo"))

		resp = bob.do(http.MethodPut, "/todos", map[string]any{"id": mine.ID, "title": "stolen"})
		Expect(resp.status).To(Equal(http.StatusForbidden))
		Expect(resp.message()).To(Equal("You have no permission to update this Todo"))

		resp = bob.do(http.MethodDelete, path, nil)
		Expect(resp.status).To(Equal(http.StatusForbidden))
		Expect(resp.message()).To(Equal("You have no permission to delete this Todo"))

		var list []todo.Todo
		bob.do(http.MethodGet, "/todos", nil).decode(&list)
		Expect(list).To(BeEmpty())
	})

	It("rejects a todo without a title", func() {
		resp := alice.do(http.MethodPost, "/todos", map[string]string{"description": "no title"})
		Expect(resp.status).To(Equal(http.StatusBadRequest))
		Expect(resp.message()).To(ContainSubstring("title is required"))
	})
})

var _ = Describe("Sessions", func() {
	BeforeEach(func() {
		cleanupTables()
	})

	It("round trips state through save, load and delete", func() {
		state := auth.NewSessionState(7, time.Now().Add(time.Hour))

		key, err := env.sessions.Save(env.ctx, state, time.Hour)
		Expect(err).NotTo(HaveOccurred())
		Expect(auth.ValidSessionKey(key)).To(BeTrue())

		loaded, err := env.sessions.Load(env.ctx, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(state))

		Expect(env.sessions.Delete(env.ctx, key)).To(Succeed())
		_, err = env.sessions.Load(env.ctx, key)
		Expect(err).To(MatchError(auth.ErrSessionNotFound))
		Expect(env.sessions.Delete(env.ctx, key)).To(Succeed())
	})

	It("prunes only expired sessions", func() {
		c := newClient()
		c.signup("Alice", "alice@example.com", "secret")

		var userID int64
		Expect(env.pool.QueryRow(env.ctx, "SELECT id FROM users").Scan(&userID)).To(Succeed())
		_, err := env.sessions.Save(env.ctx, auth.NewSessionState(userID, time.Now().Add(-time.Hour)), time.Hour)
		Expect(err).NotTo(HaveOccurred())

		pruned, err := env.sessions.DeleteExpired(env.ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(pruned).To(Equal(int64(1)))

		Expect(c.do(http.MethodGet, "/users", nil).status).To(Equal(http.StatusOK))
	})

	It("seeds the guest account once", func() {
		guest := auth.GuestAccount{Name: "Guest", Email: "guest@guest.com", Password: "Guest"}
		Expect(env.accounts.EnsureGuest(env.ctx, guest)).To(Succeed())
		Expect(env.accounts.EnsureGuest(env.ctx, guest)).To(Succeed())

		var n int
		Expect(env.pool.QueryRow(env.ctx, "SELECT COUNT(*) FROM users").Scan(&n)).To(Succeed())
		Expect(n).To(Equal(1))

		login := newClient().do(http.MethodPost, "/users/login",
			map[string]string{"email": "guest@guest.com", "password": "Guest"})
		Expect(login.status).To(Equal(http.StatusOK))
	})
})
