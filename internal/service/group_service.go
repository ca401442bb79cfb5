package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/groupshare/internal/apperr"
	"github.com/mmynk/groupshare/internal/lifecycle"
	"github.com/mmynk/groupshare/internal/middleware"
	"github.com/mmynk/groupshare/internal/models"
)

// GroupService implements the Connect GroupService on top of the lifecycle engine.
type GroupService struct {
	engine *lifecycle.Service
	logger *slog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(engine *lifecycle.Service, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroupService{engine: engine, logger: logger}
}

// caller returns the authenticated user or an Unauthenticated error.
func caller(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errNoCaller)
	}
	return userID, nil
}

// CreateGroup creates a group owned by the caller.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[GroupDetailsResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateGroup request received", "name", req.Msg.Name, "user_id", userID)

	details, err := s.engine.CreateGroup(ctx, userID, req.Msg.Name, req.Msg.Description)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toDetails(details)), nil
}

// UpdateGroup renames the group or changes its description.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[GroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.engine.UpdateGroup(ctx, req.Msg.GroupID, userID, req.Msg.Name, req.Msg.Description)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(summary)}), nil
}

// GetGroup returns the group with its members and visible content.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupDetailsResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	details, err := s.engine.GetGroup(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(toDetails(details)), nil
}

// ListGroups returns the caller's live groups.
func (s *GroupService) ListGroups(ctx context.Context, _ *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.engine.ListGroups(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	groups := make([]*Group, len(summaries))
	for i := range summaries {
		groups[i] = toGroup(&summaries[i])
	}
	return connect.NewResponse(&ListGroupsResponse{Groups: groups}), nil
}

// AddMember adds a user by ID or by email. Owner only.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[MemberResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	var view *lifecycle.MemberView
	switch {
	case req.Msg.UserID != "" && req.Msg.Email != "":
		return nil, toConnectError(apperr.Invalid("user_id", "set either user_id or email, not both"))
	case req.Msg.Email != "":
		view, err = s.engine.AddMemberByEmail(ctx, req.Msg.GroupID, userID, req.Msg.Email)
	default:
		view, err = s.engine.AddMember(ctx, req.Msg.GroupID, userID, req.Msg.UserID)
	}
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MemberResponse{Member: toMember(view)}), nil
}

// LeaveGroup closes the caller's membership.
func (s *GroupService) LeaveGroup(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[MemberResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.engine.LeaveGroup(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MemberResponse{Member: toMember(view)}), nil
}

// RemoveMember closes another member's membership. Owner only.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[MemberResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.engine.RemoveMember(ctx, req.Msg.GroupID, userID, req.Msg.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MemberResponse{Member: toMember(view)}), nil
}

// TransferOwnership hands the group to another active member.
func (s *GroupService) TransferOwnership(ctx context.Context, req *connect.Request[TransferOwnershipRequest]) (*connect.Response[GroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.engine.TransferOwnership(ctx, req.Msg.GroupID, userID, req.Msg.NewOwnerID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(summary)}), nil
}

// ListMembers returns every membership row of the group.
func (s *GroupService) ListMembers(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListMembersResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	views, err := s.engine.ListMembers(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListMembersResponse{Members: toMembers(views)}), nil
}

// ShareContent shares one of the caller's photos or albums.
func (s *GroupService) ShareContent(ctx context.Context, req *connect.Request[ShareContentRequest]) (*connect.Response[ContentResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	contentType, err := models.ParseContentType(strings.ToLower(req.Msg.ContentType))
	if err != nil {
		return nil, toConnectError(apperr.Invalid("content_type", "%v", err))
	}

	view, err := s.engine.ShareContent(ctx, req.Msg.GroupID, userID, contentType, req.Msg.ContentID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ContentResponse{Content: toContent(view)}), nil
}

// UnshareContent withdraws a shared row.
func (s *GroupService) UnshareContent(ctx context.Context, req *connect.Request[UnshareContentRequest]) (*connect.Response[ContentResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	view, err := s.engine.UnshareContent(ctx, req.Msg.GroupID, userID, req.Msg.SharedContentID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ContentResponse{Content: toContent(view)}), nil
}

// ListContent returns the content visible to the group.
func (s *GroupService) ListContent(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListContentResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	views, err := s.engine.ListActiveContent(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListContentResponse{Content: toContents(views)}), nil
}

// RequestDeletion schedules the group for deletion.
func (s *GroupService) RequestDeletion(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.engine.RequestDeletion(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(summary)}), nil
}

// CancelDeletion clears a pending deletion.
func (s *GroupService) CancelDeletion(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := s.engine.CancelDeletion(ctx, req.Msg.GroupID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GroupResponse{Group: toGroup(summary)}), nil
}
