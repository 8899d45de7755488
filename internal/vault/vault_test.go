package vault

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tickvault/ledger-go-sdk/internal/crypto"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
)

func openTestOptions(passphrase string) Options {
	return Options{
		Passphrase:   passphrase,
		Create:       true,
		Collaborator: crypto.NewEd25519Collaborator(),
	}
}

func TestOpenFile_CreatesAndRoundTripsAnAddedSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()

	v, err := OpenFile(ctx, path, openTestOptions("correct horse battery staple"))
	require.NoError(t, err)

	entry, err := v.AddSeed(ctx, AddSeedRequest{Name: "primary", Seed: "seedvalueoneseedvalueoneseedvalue12"})
	require.NoError(t, err)
	require.Equal(t, "primary", entry.Name)
	require.NotEmpty(t, entry.Identity)

	require.NoError(t, v.Close())

	reopened, err := OpenFile(ctx, path, Options{Passphrase: "correct horse battery staple", Collaborator: crypto.NewEd25519Collaborator()})
	require.NoError(t, err)
	defer reopened.Close()

	seed, err := reopened.GetSeed("primary")
	require.NoError(t, err)
	require.Equal(t, "seedvalueoneseedvalueoneseedvalue12", string(seed))

	identity, err := reopened.GetIdentity("primary")
	require.NoError(t, err)
	require.Equal(t, entry.Identity, identity)
}

func TestOpenFile_MissingAndNoCreateFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	_, err := OpenFile(context.Background(), path, Options{Passphrase: "x"})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindVaultNotFound))
}

func TestOpenFile_WrongPassphraseFailsToDecryptOnRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()

	v, err := OpenFile(ctx, path, openTestOptions("right passphrase"))
	require.NoError(t, err)
	_, err = v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedaseedaseedaseedaseedaseedaseeda"})
	require.NoError(t, err)
	require.NoError(t, v.Close())

	wrong, err := OpenFile(ctx, path, Options{Passphrase: "wrong passphrase", Collaborator: crypto.NewEd25519Collaborator()})
	require.NoError(t, err) // open succeeds; the KDF has no way to know the passphrase is wrong
	defer wrong.Close()

	_, err = wrong.GetSeed("a")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindVaultInvalidPass))
}

func TestOpenFile_SecondOpenWithoutTimeoutFailsWhileLockHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()

	v, err := OpenFile(ctx, path, openTestOptions("pw"))
	require.NoError(t, err)
	defer v.Close()

	_, err = OpenFile(ctx, path, Options{Passphrase: "pw", Create: true, Collaborator: crypto.NewEd25519Collaborator()})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindVault))
}

func TestOpenFile_CloseReleasesLockForNextOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()

	v, err := OpenFile(ctx, path, openTestOptions("pw"))
	require.NoError(t, err)
	require.NoError(t, v.Close())

	_, err = os.Stat(path + ".lock")
	require.True(t, os.IsNotExist(err))

	v2, err := OpenFile(ctx, path, Options{Passphrase: "pw", Collaborator: crypto.NewEd25519Collaborator()})
	require.NoError(t, err)
	defer v2.Close()
}

func TestAddSeed_DuplicateNameWithoutOverwriteFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()
	v, err := OpenFile(ctx, path, openTestOptions("pw"))
	require.NoError(t, err)
	defer v.Close()

	_, err = v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedaseedaseedaseedaseedaseedaseeda"})
	require.NoError(t, err)

	_, err = v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedbseedbseedbseedbseedbseedbseedb"})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindVaultEntryExists))
}

func TestAddSeed_OverwritePreservesCreatedAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()
	v, err := OpenFile(ctx, path, openTestOptions("pw"))
	require.NoError(t, err)
	defer v.Close()

	first, err := v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedaseedaseedaseedaseedaseedaseeda"})
	require.NoError(t, err)

	second, err := v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedbseedbseedbseedbseedbseedbseedb", Overwrite: true})
	require.NoError(t, err)

	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.NotEqual(t, first.Identity, second.Identity)

	seed, err := v.GetSeed("a")
	require.NoError(t, err)
	require.Equal(t, "seedbseedbseedbseedbseedbseedbseedb", string(seed))
}

func TestResolveEntry_FallsBackToIdentityWhenNameDoesNotMatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()
	v, err := OpenFile(ctx, path, openTestOptions("pw"))
	require.NoError(t, err)
	defer v.Close()

	entry, err := v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedaseedaseedaseedaseedaseedaseeda"})
	require.NoError(t, err)

	byIdentity, err := v.GetEntry(string(entry.Identity))
	require.NoError(t, err)
	require.Equal(t, "a", byIdentity.Name)
}

func TestRemove_DeletesTheResolvedEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()
	v, err := OpenFile(ctx, path, openTestOptions("pw"))
	require.NoError(t, err)
	defer v.Close()

	_, err = v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedaseedaseedaseedaseedaseedaseeda"})
	require.NoError(t, err)
	require.NoError(t, v.Remove(ctx, "a"))

	_, err = v.GetEntry("a")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindVaultEntryNotFound))
	require.Len(t, v.List(), 0)
}

func TestRotatePassphrase_ReencryptsUnderNewKeyAndOldPassphraseNoLongerWorks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()
	v, err := OpenFile(ctx, path, openTestOptions("old passphrase"))
	require.NoError(t, err)
	defer v.Close()

	_, err = v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedaseedaseedaseedaseedaseedaseeda"})
	require.NoError(t, err)
	_, err = v.AddSeed(ctx, AddSeedRequest{Name: "b", Seed: "seedbseedbseedbseedbseedbseedbseedb"})
	require.NoError(t, err)

	require.NoError(t, v.RotatePassphrase(ctx, "new passphrase"))

	seed, err := v.GetSeed("a")
	require.NoError(t, err)
	require.Equal(t, "seedaseedaseedaseedaseedaseedaseeda", string(seed))
	require.NoError(t, v.Close())

	reopened, err := OpenFile(ctx, path, Options{Passphrase: "new passphrase", Collaborator: crypto.NewEd25519Collaborator()})
	require.NoError(t, err)
	seed, err = reopened.GetSeed("b")
	require.NoError(t, err)
	require.Equal(t, "seedbseedbseedbseedbseedbseedbseedb", string(seed))
	require.NoError(t, reopened.Close())

	stale, err := OpenFile(ctx, path, Options{Passphrase: "old passphrase", Collaborator: crypto.NewEd25519Collaborator()})
	require.NoError(t, err)
	defer stale.Close()
	_, err = stale.GetSeed("a")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindVaultInvalidPass))
}

func TestExportImportEncrypted_MergePreservesUntouchedEntries(t *testing.T) {
	ctx := context.Background()
	source, err := OpenFile(ctx, filepath.Join(t.TempDir(), "source.json"), openTestOptions("source pw"))
	require.NoError(t, err)
	defer source.Close()
	_, err = source.AddSeed(ctx, AddSeedRequest{Name: "shared", Seed: "seedsharedseedsharedseedsharedseeds"})
	require.NoError(t, err)
	blob, err := source.ExportEncrypted()
	require.NoError(t, err)

	dest, err := OpenFile(ctx, filepath.Join(t.TempDir(), "dest.json"), openTestOptions("dest pw"))
	require.NoError(t, err)
	defer dest.Close()
	_, err = dest.AddSeed(ctx, AddSeedRequest{Name: "local", Seed: "seedlocalseedlocalseedlocalseedloc"})
	require.NoError(t, err)

	sourcePassphrase := "source pw"
	require.NoError(t, dest.ImportEncrypted(ctx, blob, ImportMerge, &sourcePassphrase))

	require.Len(t, dest.List(), 2)
	seed, err := dest.GetSeed("shared")
	require.NoError(t, err)
	require.Equal(t, "seedsharedseedsharedseedsharedseeds", string(seed))
	_, err = dest.GetEntry("local")
	require.NoError(t, err)
}

func TestExportImportEncrypted_ReplaceDropsUntouchedEntries(t *testing.T) {
	ctx := context.Background()
	source, err := OpenFile(ctx, filepath.Join(t.TempDir(), "source.json"), openTestOptions("source pw"))
	require.NoError(t, err)
	defer source.Close()
	_, err = source.AddSeed(ctx, AddSeedRequest{Name: "shared", Seed: "seedsharedseedsharedseedsharedseeds"})
	require.NoError(t, err)
	blob, err := source.ExportEncrypted()
	require.NoError(t, err)

	dest, err := OpenFile(ctx, filepath.Join(t.TempDir(), "dest.json"), openTestOptions("dest pw"))
	require.NoError(t, err)
	defer dest.Close()
	_, err = dest.AddSeed(ctx, AddSeedRequest{Name: "local", Seed: "seedlocalseedlocalseedlocalseedloc"})
	require.NoError(t, err)

	sourcePassphrase := "source pw"
	require.NoError(t, dest.ImportEncrypted(ctx, blob, ImportReplace, &sourcePassphrase))

	require.Len(t, dest.List(), 1)
	_, err = dest.GetEntry("local")
	require.Error(t, err)
}

type memoryStore struct {
	data    []byte
	present bool
}

func (s *memoryStore) Read(ctx context.Context) ([]byte, bool, error) {
	return s.data, s.present, nil
}

func (s *memoryStore) Write(ctx context.Context, data []byte) error {
	s.data = append([]byte(nil), data...)
	s.present = true
	return nil
}

func TestOpenKV_RoundTripsThroughAPluggableStore(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}

	v, err := OpenKV(ctx, store, openTestOptions("kv passphrase"))
	require.NoError(t, err)
	_, err = v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedaseedaseedaseedaseedaseedaseeda"})
	require.NoError(t, err)
	require.NoError(t, v.Close())
	require.True(t, store.present)

	reopened, err := OpenKV(ctx, store, Options{Passphrase: "kv passphrase", Collaborator: crypto.NewEd25519Collaborator()})
	require.NoError(t, err)
	defer reopened.Close()

	seed, err := reopened.GetSeed("a")
	require.NoError(t, err)
	require.Equal(t, "seedaseedaseedaseedaseedaseedaseeda", string(seed))
}

func TestSignerAndGetSeedSource_ValidateRefBeforeReturning(t *testing.T) {
	ctx := context.Background()
	v, err := OpenFile(ctx, filepath.Join(t.TempDir(), "vault.json"), openTestOptions("pw"))
	require.NoError(t, err)
	defer v.Close()

	_, err = v.AddSeed(ctx, AddSeedRequest{Name: "a", Seed: "seedaseedaseedaseedaseedaseedaseeda"})
	require.NoError(t, err)

	ref, err := v.Signer("a")
	require.NoError(t, err)
	require.Equal(t, "a", *ref)

	_, err = v.Signer("missing")
	require.Error(t, err)

	seed, err := v.GetSeedSource("a")
	require.NoError(t, err)
	require.Equal(t, "seedaseedaseedaseedaseedaseedaseeda", string(*seed))
}

func TestErase_FileVaultDeletesTheBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	ctx := context.Background()
	v, err := OpenFile(ctx, path, openTestOptions("pw"))
	require.NoError(t, err)
	require.NoError(t, v.Erase(ctx))

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
	require.NoError(t, v.Close())
}

func TestErase_KVVaultRequiresARemoverStore(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	v, err := OpenKV(ctx, store, openTestOptions("pw"))
	require.NoError(t, err)
	defer v.Close()

	err = v.Erase(ctx)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindVault))
}
