package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// GroupServiceName is the fully-qualified name of the GroupService.
const GroupServiceName = "groupshare.v1.GroupService"

// Procedure paths of the GroupService.
const (
	CreateGroupProcedure       = "/" + GroupServiceName + "/CreateGroup"
	UpdateGroupProcedure       = "/" + GroupServiceName + "/UpdateGroup"
	GetGroupProcedure          = "/" + GroupServiceName + "/GetGroup"
	ListGroupsProcedure        = "/" + GroupServiceName + "/ListGroups"
	AddMemberProcedure         = "/" + GroupServiceName + "/AddMember"
	LeaveGroupProcedure        = "/" + GroupServiceName + "/LeaveGroup"
	RemoveMemberProcedure      = "/" + GroupServiceName + "/RemoveMember"
	TransferOwnershipProcedure = "/" + GroupServiceName + "/TransferOwnership"
	ListMembersProcedure       = "/" + GroupServiceName + "/ListMembers"
	ShareContentProcedure      = "/" + GroupServiceName + "/ShareContent"
	UnshareContentProcedure    = "/" + GroupServiceName + "/UnshareContent"
	ListContentProcedure       = "/" + GroupServiceName + "/ListContent"
	RequestDeletionProcedure   = "/" + GroupServiceName + "/RequestDeletion"
	CancelDeletionProcedure    = "/" + GroupServiceName + "/CancelDeletion"
)

// NewGroupServiceHandler builds an HTTP handler for every GroupService
// procedure. It returns the path prefix to mount it on.
func NewGroupServiceHandler(svc *GroupService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateGroupProcedure, connect.NewUnaryHandler(CreateGroupProcedure, svc.CreateGroup, opts...))
	mux.Handle(UpdateGroupProcedure, connect.NewUnaryHandler(UpdateGroupProcedure, svc.UpdateGroup, opts...))
	mux.Handle(GetGroupProcedure, connect.NewUnaryHandler(GetGroupProcedure, svc.GetGroup, opts...))
	mux.Handle(ListGroupsProcedure, connect.NewUnaryHandler(ListGroupsProcedure, svc.ListGroups, opts...))
	mux.Handle(AddMemberProcedure, connect.NewUnaryHandler(AddMemberProcedure, svc.AddMember, opts...))
	mux.Handle(LeaveGroupProcedure, connect.NewUnaryHandler(LeaveGroupProcedure, svc.LeaveGroup, opts...))
	mux.Handle(RemoveMemberProcedure, connect.NewUnaryHandler(RemoveMemberProcedure, svc.RemoveMember, opts...))
	mux.Handle(TransferOwnershipProcedure, connect.NewUnaryHandler(TransferOwnershipProcedure, svc.TransferOwnership, opts...))
	mux.Handle(ListMembersProcedure, connect.NewUnaryHandler(ListMembersProcedure, svc.ListMembers, opts...))
	mux.Handle(ShareContentProcedure, connect.NewUnaryHandler(ShareContentProcedure, svc.ShareContent, opts...))
	mux.Handle(UnshareContentProcedure, connect.NewUnaryHandler(UnshareContentProcedure, svc.UnshareContent, opts...))
	mux.Handle(ListContentProcedure, connect.NewUnaryHandler(ListContentProcedure, svc.ListContent, opts...))
	mux.Handle(RequestDeletionProcedure, connect.NewUnaryHandler(RequestDeletionProcedure, svc.RequestDeletion, opts...))
	mux.Handle(CancelDeletionProcedure, connect.NewUnaryHandler(CancelDeletionProcedure, svc.CancelDeletion, opts...))

	return "/" + GroupServiceName + "/", mux
}

// GroupServiceClient is a client for the GroupService.
type GroupServiceClient struct {
	createGroup       *connect.Client[CreateGroupRequest, GroupDetailsResponse]
	updateGroup       *connect.Client[UpdateGroupRequest, GroupResponse]
	getGroup          *connect.Client[GroupRequest, GroupDetailsResponse]
	listGroups        *connect.Client[ListGroupsRequest, ListGroupsResponse]
	addMember         *connect.Client[AddMemberRequest, MemberResponse]
	leaveGroup        *connect.Client[GroupRequest, MemberResponse]
	removeMember      *connect.Client[RemoveMemberRequest, MemberResponse]
	transferOwnership *connect.Client[TransferOwnershipRequest, GroupResponse]
	listMembers       *connect.Client[GroupRequest, ListMembersResponse]
	shareContent      *connect.Client[ShareContentRequest, ContentResponse]
	unshareContent    *connect.Client[UnshareContentRequest, ContentResponse]
	listContent       *connect.Client[GroupRequest, ListContentResponse]
	requestDeletion   *connect.Client[GroupRequest, GroupResponse]
	cancelDeletion    *connect.Client[GroupRequest, GroupResponse]
}

// NewGroupServiceClient creates a GroupService client for baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &GroupServiceClient{
		createGroup:       connect.NewClient[CreateGroupRequest, GroupDetailsResponse](httpClient, baseURL+CreateGroupProcedure, opts...),
		updateGroup:       connect.NewClient[UpdateGroupRequest, GroupResponse](httpClient, baseURL+UpdateGroupProcedure, opts...),
		getGroup:          connect.NewClient[GroupRequest, GroupDetailsResponse](httpClient, baseURL+GetGroupProcedure, opts...),
		listGroups:        connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+ListGroupsProcedure, opts...),
		addMember:         connect.NewClient[AddMemberRequest, MemberResponse](httpClient, baseURL+AddMemberProcedure, opts...),
		leaveGroup:        connect.NewClient[GroupRequest, MemberResponse](httpClient, baseURL+LeaveGroupProcedure, opts...),
		removeMember:      connect.NewClient[RemoveMemberRequest, MemberResponse](httpClient, baseURL+RemoveMemberProcedure, opts...),
		transferOwnership: connect.NewClient[TransferOwnershipRequest, GroupResponse](httpClient, baseURL+TransferOwnershipProcedure, opts...),
		listMembers:       connect.NewClient[GroupRequest, ListMembersResponse](httpClient, baseURL+ListMembersProcedure, opts...),
		shareContent:      connect.NewClient[ShareContentRequest, ContentResponse](httpClient, baseURL+ShareContentProcedure, opts...),
		unshareContent:    connect.NewClient[UnshareContentRequest, ContentResponse](httpClient, baseURL+UnshareContentProcedure, opts...),
		listContent:       connect.NewClient[GroupRequest, ListContentResponse](httpClient, baseURL+ListContentProcedure, opts...),
		requestDeletion:   connect.NewClient[GroupRequest, GroupResponse](httpClient, baseURL+RequestDeletionProcedure, opts...),
		cancelDeletion:    connect.NewClient[GroupRequest, GroupResponse](httpClient, baseURL+CancelDeletionProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[GroupDetailsResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[GroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupDetailsResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[MemberResponse], error) {
	return c.addMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) LeaveGroup(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[MemberResponse], error) {
	return c.leaveGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[MemberResponse], error) {
	return c.removeMember.CallUnary(ctx, req)
}

func (c *GroupServiceClient) TransferOwnership(ctx context.Context, req *connect.Request[TransferOwnershipRequest]) (*connect.Response[GroupResponse], error) {
	return c.transferOwnership.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListMembers(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListMembersResponse], error) {
	return c.listMembers.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ShareContent(ctx context.Context, req *connect.Request[ShareContentRequest]) (*connect.Response[ContentResponse], error) {
	return c.shareContent.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UnshareContent(ctx context.Context, req *connect.Request[UnshareContentRequest]) (*connect.Response[ContentResponse], error) {
	return c.unshareContent.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListContent(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[ListContentResponse], error) {
	return c.listContent.CallUnary(ctx, req)
}

func (c *GroupServiceClient) RequestDeletion(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupResponse], error) {
	return c.requestDeletion.CallUnary(ctx, req)
}

func (c *GroupServiceClient) CancelDeletion(ctx context.Context, req *connect.Request[GroupRequest]) (*connect.Response[GroupResponse], error) {
	return c.cancelDeletion.CallUnary(ctx, req)
}
