package service

import (
	"context"
	"errors"

	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/rs/zerolog/log"
)

func (s *Switchboard) handleSocial(ctx context.Context, sess *domain.Session, cmd domain.Command) {
	if !sess.Authenticated() {
		s.reply(ctx, sess.Conn, domain.ErrorEvent{Message: domain.ErrNotAuthenticated.Error()})
		return
	}
	me := sess.Username

	var err error
	switch c := cmd.(type) {
	case domain.GetGroups:
		err = s.sendGroups(ctx, sess.Conn, me)
	case domain.CreateGroup:
		var g domain.Group
		if g, err = s.accounts.CreateGroup(ctx, me, c.Name); err == nil {
			s.subs.Subscribe(domain.GroupChannel(g.ID), sess.Conn)
			err = s.sendGroups(ctx, sess.Conn, me)
		}
	case domain.JoinGroup:
		var g domain.Group
		if g, err = s.accounts.JoinGroup(ctx, c.GroupID, me); err == nil {
			s.subs.Subscribe(domain.GroupChannel(g.ID), sess.Conn)
			err = s.sendGroups(ctx, sess.Conn, me)
		}
	case domain.GetFriends:
		err = s.sendFriends(ctx, sess.Conn, me)
	case domain.GetFriendRequests:
		err = s.sendFriendRequests(ctx, sess.Conn, me)
	case domain.SendFriendRequest:
		if err = s.accounts.SendFriendRequest(ctx, me, c.Username); err == nil {
			if target, ok := s.sessions.Resolve(c.Username); ok {
				err = s.sendFriendRequests(ctx, target, c.Username)
			}
		}
	case domain.AcceptFriendRequest:
		if err = s.accounts.AcceptFriendRequest(ctx, me, c.Username); err == nil {
			err = s.sendFriends(ctx, sess.Conn, me)
			if other, ok := s.sessions.Resolve(c.Username); ok && err == nil {
				err = s.sendFriends(ctx, other, c.Username)
			}
		}
	default:
		log.Debug().Str("conn_id", sess.Conn.String()).Msgf("Unhandled command %T", cmd)
		return
	}

	if err != nil {
		msg := "request failed"
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMalformedMessage) {
			msg = err.Error()
		} else {
			log.Error().Err(err).Str("conn_id", sess.Conn.String()).Msgf("Failed to handle %T", cmd)
		}
		s.reply(ctx, sess.Conn, domain.ErrorEvent{Message: msg})
	}
}

func (s *Switchboard) sendGroups(ctx context.Context, conn domain.ConnID, user domain.Username) error {
	groups, err := s.accounts.Groups(ctx, user)
	if err != nil {
		return err
	}
	s.reply(ctx, conn, domain.GroupsList{Groups: groups})
	return nil
}

func (s *Switchboard) sendFriends(ctx context.Context, conn domain.ConnID, user domain.Username) error {
	friends, err := s.accounts.Friends(ctx, user, s.sessions.Online)
	if err != nil {
		return err
	}
	s.reply(ctx, conn, domain.FriendsList{Friends: friends})
	return nil
}

func (s *Switchboard) sendFriendRequests(ctx context.Context, conn domain.ConnID, user domain.Username) error {
	reqs, err := s.accounts.PendingRequests(ctx, user)
	if err != nil {
		return err
	}
	s.reply(ctx, conn, domain.FriendRequestsList{Requests: reqs})
	return nil
}
