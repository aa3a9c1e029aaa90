//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appcenter-community/appcenter-go/pkg/appcenter"
)

// TestReleaseWorkflow_UploadAndDistribute walks the full release journey:
// chunked upload, processing poll, release patch, then distribution to a
// group.
func TestReleaseWorkflow_UploadAndDistribute(t *testing.T) {
	t.Parallel()

	fake := newFakeAppCenter(t)
	client := fake.client()
	ctx := context.Background()

	// 1000 bytes splits into four chunks at the fake's 256 byte chunk size.
	binaryPath, content := writeBinary(t, "app-release.apk", 1000)

	releaseID, err := client.Releases().UploadBuild(ctx, fake.owner, fake.app, &appcenter.UploadOptions{
		BinaryPath:   binaryPath,
		ReleaseNotes: "Nightly build",
		BranchName:   "main",
		CommitHash:   "abc123",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, releaseID)

	// The service received the binary intact.
	assert.Equal(t, content, fake.assembledUpload(fake.singleUploadID()))

	// The release carries the notes and build info from the upload options.
	details, err := client.Releases().Details(ctx, fake.owner, fake.app, releaseID)
	require.NoError(t, err)
	assert.Equal(t, "Nightly build", details.ReleaseNotes)
	require.NotNil(t, details.Build)
	assert.Equal(t, "main", details.Build.BranchName)
	assert.Equal(t, "abc123", details.Build.CommitHash)
	assert.Equal(t, int64(1000), details.Size)

	// Distribute to a group and read the destination back.
	groupID := uuid.NewString()

	destination, err := client.Releases().ReleaseToGroup(ctx, fake.owner, fake.app,
		releaseID, groupID, true, false)
	require.NoError(t, err)
	assert.Equal(t, groupID, destination.ID)
	assert.True(t, destination.MandatoryUpdate)

	details, err = client.Releases().Details(ctx, fake.owner, fake.app, releaseID)
	require.NoError(t, err)
	require.Len(t, details.Destinations, 1)
	assert.Equal(t, groupID, details.Destinations[0].ID)
}

// TestReleaseWorkflow_UploadAndRelease drives the combined upload-and-
// distribute operation.
func TestReleaseWorkflow_UploadAndRelease(t *testing.T) {
	t.Parallel()

	fake := newFakeAppCenter(t)
	client := fake.client()
	ctx := context.Background()

	binaryPath, _ := writeBinary(t, "app-release.apk", 600)
	groupID := uuid.NewString()

	details, err := client.Releases().UploadAndRelease(ctx, fake.owner, fake.app, &appcenter.ReleaseOptions{
		UploadOptions: appcenter.UploadOptions{
			BinaryPath:   binaryPath,
			ReleaseNotes: "Release candidate",
		},
		GroupID:       groupID,
		NotifyTesters: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, details.ID)
	require.Len(t, details.Destinations, 1)
	assert.Equal(t, groupID, details.Destinations[0].ID)
}

// TestReleaseWorkflow_MissingBinary verifies the upload fails before any
// service interaction when the binary does not exist.
func TestReleaseWorkflow_MissingBinary(t *testing.T) {
	t.Parallel()

	fake := newFakeAppCenter(t)
	client := fake.client()

	_, err := client.Releases().UploadBuild(context.Background(), fake.owner, fake.app,
		&appcenter.UploadOptions{BinaryPath: "/does/not/exist.apk"})
	require.Error(t, err)
	assert.Empty(t, fake.uploads)
}

// TestCrashWorkflow_TriageErrorGroups pages through a large error group
// listing, following the service's broken continuation links, then
// annotates and closes the busiest group.
func TestCrashWorkflow_TriageErrorGroups(t *testing.T) {
	t.Parallel()

	fake := newFakeAppCenter(t)
	fake.seedErrorGroups(75)
	client := fake.client()
	ctx := context.Background()

	iterator := client.Crashes().ErrorGroups(ctx, fake.owner, fake.app, &appcenter.ErrorGroupsOptions{
		Start: time.Now().AddDate(0, 0, -7),
	})

	groups, err := iterator.All()
	require.NoError(t, err)
	require.Len(t, groups, 75)

	// Three pages of 30, 30, 15 arrive in listing order.
	for i, group := range groups {
		assert.Equal(t, fmt.Sprintf("group-%03d", i), group.ErrorGroupID)
	}

	busiest := groups[0]

	// Annotate without passing a state: the current state is read back and
	// preserved.
	err = client.Crashes().SetAnnotation(ctx, fake.owner, fake.app,
		busiest.ErrorGroupID, "tracking in issue 482", "")
	require.NoError(t, err)

	annotated, err := client.Crashes().GroupDetails(ctx, fake.owner, fake.app, busiest.ErrorGroupID)
	require.NoError(t, err)
	assert.Equal(t, "tracking in issue 482", annotated.Annotation)
	assert.Equal(t, appcenter.ErrorGroupStateOpen, annotated.State)

	// Close the group as part of the annotation.
	err = client.Crashes().SetAnnotation(ctx, fake.owner, fake.app,
		busiest.ErrorGroupID, "fixed in 1.0.1", appcenter.ErrorGroupStateClosed)
	require.NoError(t, err)

	closed, err := client.Crashes().GroupDetails(ctx, fake.owner, fake.app, busiest.ErrorGroupID)
	require.NoError(t, err)
	assert.Equal(t, appcenter.ErrorGroupStateClosed, closed.State)
}

// TestCrashWorkflow_StreamErrorGroups consumes the listing through the
// channel API.
func TestCrashWorkflow_StreamErrorGroups(t *testing.T) {
	t.Parallel()

	fake := newFakeAppCenter(t)
	fake.seedErrorGroups(45)
	client := fake.client()

	pages := 0
	total := 0

	for result := range client.Crashes().StreamErrorGroups(context.Background(), fake.owner, fake.app,
		&appcenter.ErrorGroupsOptions{Start: time.Now().AddDate(0, 0, -1)}) {
		require.NoError(t, result.Err)

		pages++
		total += len(result.Items)
	}

	assert.Equal(t, 2, pages)
	assert.Equal(t, 45, total)
}

// TestAccountWorkflow_APITokenLifecycle creates, lists, and deletes a user
// API token.
func TestAccountWorkflow_APITokenLifecycle(t *testing.T) {
	t.Parallel()

	fake := newFakeAppCenter(t)
	client := fake.client()
	ctx := context.Background()

	description := "ci-" + uuid.NewString()[:8]

	created, err := client.Account().CreateUserAPIToken(ctx, description, appcenter.TokenScopeFull)
	require.NoError(t, err)
	assert.Equal(t, description, created.Description)
	assert.Equal(t, []string{"all"}, created.Scope)
	assert.NotEmpty(t, created.Token, "the token value is returned on creation")

	tokens, err := client.Account().UserAPITokens(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, created.ID, tokens[0].ID)
	assert.Empty(t, tokens[0].Token, "the token value is never returned by the listing")

	require.NoError(t, client.Account().DeleteUserAPIToken(ctx, created.ID))

	tokens, err = client.Account().UserAPITokens(ctx)
	require.NoError(t, err)
	assert.Empty(t, tokens)

	err = client.Account().DeleteUserAPIToken(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, appcenter.IsNotFound(err))
}
