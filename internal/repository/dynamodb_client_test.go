package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"starlight-postoffice/internal/domain"
)

type fakeDynamo struct {
	getOut          *dynamodb.GetItemOutput
	getErr          error
	putErr          error
	deleteErr       error
	lastGetInput    *dynamodb.GetItemInput
	lastPutInput    *dynamodb.PutItemInput
	lastDeleteInput *dynamodb.DeleteItemInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.lastDeleteInput = in
	return &dynamodb.DeleteItemOutput{}, f.deleteErr
}

func testSession(identity string) *domain.Session {
	s := domain.NewSession(identity, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	s.Phase = domain.PhaseRoomDialogue
	s.Room = "love"
	s.RoomTurns = 2
	s.Append(domain.RoleUser, "I never told her")
	s.MarkStoryUsed("love.feather")
	return s
}

func stateItem(t *testing.T, s *domain.Session) map[string]types.AttributeValue {
	t.Helper()
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	return map[string]types.AttributeValue{
		"PK":    &types.AttributeValueMemberS{Value: sessionPK(s.Identity)},
		"SK":    &types.AttributeValueMemberS{Value: skState},
		"state": &types.AttributeValueMemberS{Value: string(raw)},
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "tbl")
	require.Error(t, err)
	_, err = New(&fakeDynamo{}, " ")
	require.Error(t, err)
}

func TestLoad_HappyPath(t *testing.T) {
	want := testSession("visitor-1")
	api := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: stateItem(t, want)}}
	c, err := New(api, "tbl")
	require.NoError(t, err)

	got, err := c.Load(context.Background(), "visitor-1")
	require.NoError(t, err)
	require.Equal(t, domain.PhaseRoomDialogue, got.Phase)
	require.Equal(t, "love", got.Room)
	require.Equal(t, 2, got.RoomTurns)
	require.Equal(t, []string{"love.feather"}, got.UsedStories)
	require.Len(t, got.Turns, 1)

	pk := api.lastGetInput.Key["PK"].(*types.AttributeValueMemberS)
	require.Equal(t, "SESSION#visitor-1", pk.Value)
	require.True(t, *api.lastGetInput.ConsistentRead)
}

func TestLoad_NotFound(t *testing.T) {
	c, err := New(&fakeDynamo{getOut: &dynamodb.GetItemOutput{}}, "tbl")
	require.NoError(t, err)
	_, err = c.Load(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_CorruptState(t *testing.T) {
	item := map[string]types.AttributeValue{
		"PK":    &types.AttributeValueMemberS{Value: sessionPK("v")},
		"state": &types.AttributeValueMemberS{Value: `{"phase":`},
	}
	c, err := New(&fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item}}, "tbl")
	require.NoError(t, err)
	_, err = c.Load(context.Background(), "v")
	require.ErrorIs(t, err, ErrCorrupt)

	item["state"] = &types.AttributeValueMemberN{Value: "1"}
	_, err = c.Load(context.Background(), "v")
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoad_UnknownPhaseIsCorrupt(t *testing.T) {
	s := testSession("v")
	s.Phase = "cellar"
	c, err := New(&fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: stateItem(t, s)}}, "tbl")
	require.NoError(t, err)
	_, err = c.Load(context.Background(), "v")
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoad_APIError(t *testing.T) {
	c, err := New(&fakeDynamo{getErr: errors.New("throttled")}, "tbl")
	require.NoError(t, err)
	_, err = c.Load(context.Background(), "v")
	require.ErrorContains(t, err, "throttled")
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestSave_WritesQueryableAttributes(t *testing.T) {
	api := &fakeDynamo{}
	c, err := New(api, "tbl")
	require.NoError(t, err)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Save(context.Background(), testSession("visitor-1")))

	item := api.lastPutInput.Item
	require.Equal(t, "tbl", *api.lastPutInput.TableName)
	require.Equal(t, "SESSION#visitor-1", item["PK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "STATE#", item["SK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "room_dialogue", item["phase"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "1", item["turns"].(*types.AttributeValueMemberN).Value)
	require.Equal(t, strconv.FormatInt(now.Add(ttlDuration).Unix(), 10), item["ttl"].(*types.AttributeValueMemberN).Value)

	var decoded domain.Session
	require.NoError(t, json.Unmarshal([]byte(item["state"].(*types.AttributeValueMemberS).Value), &decoded))
	require.Equal(t, "love", decoded.Room)
}

func TestSave_Errors(t *testing.T) {
	c, err := New(&fakeDynamo{putErr: errors.New("boom")}, "tbl")
	require.NoError(t, err)
	require.ErrorContains(t, c.Save(context.Background(), testSession("v")), "boom")
	require.Error(t, c.Save(context.Background(), &domain.Session{}))
}

func TestDelete(t *testing.T) {
	api := &fakeDynamo{}
	c, err := New(api, "tbl")
	require.NoError(t, err)
	require.NoError(t, c.Delete(context.Background(), "visitor-1"))
	require.Equal(t, "SESSION#visitor-1", api.lastDeleteInput.Key["PK"].(*types.AttributeValueMemberS).Value)

	api.deleteErr = errors.New("denied")
	require.ErrorContains(t, c.Delete(context.Background(), "visitor-1"), "denied")
}

func TestStrAttr(t *testing.T) {
	item := map[string]types.AttributeValue{
		"s": &types.AttributeValueMemberS{Value: "x"},
		"n": &types.AttributeValueMemberN{Value: "1"},
	}
	v, err := strAttr(item, "s")
	require.NoError(t, err)
	require.Equal(t, "x", v)
	_, err = strAttr(item, "n")
	require.ErrorContains(t, err, "not a string")
	_, err = strAttr(item, "missing")
	require.ErrorContains(t, err, "missing attribute")
}
