package zooclient

import (
	"context"
	"io"
	"net/http"

	"github.com/kroma-labs/restgen/body"
	"github.com/kroma-labs/restgen/params"
	"github.com/kroma-labs/restgen/rest"
)

// RestResource is /rest.
type RestResource struct{ node rest.Node }

func (r RestResource) WithHeader(name, value string) RestResource {
	return RestResource{node: r.node.WithHeader(name, value)}
}

func (r RestResource) AddHeader(name, value string) RestResource {
	return RestResource{node: r.node.AddHeader(name, value)}
}

func (r RestResource) User() UserResource {
	return UserResource{node: r.node.Child("user")}
}

func (r RestResource) Animals() AnimalsResource {
	return AnimalsResource{node: r.node.Child("animals")}
}

func (r RestResource) Books() BooksResource {
	return BooksResource{node: r.node.Child("books")}
}

// UserResource is /rest/user.
type UserResource struct{ node rest.Node }

func (r UserResource) WithHeader(name, value string) UserResource {
	return UserResource{node: r.node.WithHeader(name, value)}
}

func (r UserResource) AddHeader(name, value string) UserResource {
	return UserResource{node: r.node.AddHeader(name, value)}
}

func (r UserResource) Userid(id string) UseridResource {
	return UseridResource{node: r.node.Child(id)}
}

func (r UserResource) Upload() UploadResource {
	return UploadResource{node: r.node.Child("upload")}
}

func (r UserResource) Activate() ActivateResource {
	return ActivateResource{node: r.node.Child("activate")}
}

// Get searches users.
func (r UserResource) Get(ctx context.Context, q UserQuery) (*rest.Pending[User], error) {
	return rest.Get(ctx, r.node, rest.JSON[User]().WithAccept(MediaVndV10JSON), params.Bag(q))
}

// UseridResource is /rest/user/{userid}.
type UseridResource struct{ node rest.Node }

func (r UseridResource) WithHeader(name, value string) UseridResource {
	return UseridResource{node: r.node.WithHeader(name, value)}
}

// Post sends the form fields text and value.
func (r UseridResource) Post(ctx context.Context, text string, value *string) (*rest.Pending[string], error) {
	form := body.FormFields{params.P("text", text), params.P("value", value)}
	return rest.Post(ctx, r.node, form, rest.Text().WithAccept(MediaJSON))
}

func (r UseridResource) Delete(ctx context.Context) (*rest.Pending[string], error) {
	return rest.Delete(ctx, r.node, rest.Text().WithAccept(MediaAny))
}

// VndV10JSON selects the application/vnd-v1.0+json surface.
func (r UseridResource) VndV10JSON() UseridVndV10JSON {
	return UseridVndV10JSON{node: r.node.WithContentType(MediaVndV10JSON).WithAccept(MediaVndV10JSON)}
}

// UseridVndV10JSON is /rest/user/{userid} sending and accepting
// application/vnd-v1.0+json.
type UseridVndV10JSON struct{ node rest.Node }

func (r UseridVndV10JSON) Put(ctx context.Context, user User) (*rest.Pending[Link], error) {
	return rest.Put(ctx, r.node, body.Object{Value: user}, rest.JSON[Link]())
}

// UploadResource is /rest/user/upload.
type UploadResource struct{ node rest.Node }

func (r UploadResource) Post(ctx context.Context, parts body.Multipart) (*rest.Pending[string], error) {
	return rest.Post(ctx, r.node, parts, rest.Text())
}

// ActivateResource is /rest/user/activate.
type ActivateResource struct{ node rest.Node }

func (r ActivateResource) Put(ctx context.Context, users []User) (*rest.Pending[[]User], error) {
	n := r.node.WithContentType(MediaVndV10JSON).WithAccept(MediaVndV10JSON)
	return rest.Put(ctx, n, body.Object{Value: users}, rest.JSON[[]User]())
}

// AnimalsResource is /rest/animals.
type AnimalsResource struct{ node rest.Node }

func (r AnimalsResource) WithHeader(name, value string) AnimalsResource {
	return AnimalsResource{node: r.node.WithHeader(name, value)}
}

func (r AnimalsResource) Get(ctx context.Context) (*rest.Pending[[]Animal], error) {
	return rest.Get(ctx, r.node, rest.JSON[[]Animal]())
}

// Post looks animals up by id.
func (r AnimalsResource) Post(ctx context.Context, ids []string) (*rest.Pending[[]Animal], error) {
	return rest.Post(ctx, r.node, body.Object{Value: ids}, rest.JSON[[]Animal]())
}

func (r AnimalsResource) Put(ctx context.Context, animals []Animal) (*rest.Pending[[]Animal], error) {
	return rest.Put(ctx, r.node, body.Object{Value: animals}, rest.JSON[[]Animal]())
}

func (r AnimalsResource) Datafile() DatafileResource {
	return DatafileResource{node: r.node.Child("datafile")}
}

// DatafileResource is /rest/animals/datafile.
type DatafileResource struct{ node rest.Node }

func (r DatafileResource) Upload() DatafileUploadResource {
	return DatafileUploadResource{node: r.node.Child("upload").WithContentType(MediaOctetStream)}
}

func (r DatafileResource) Download() DatafileDownloadResource {
	return DatafileDownloadResource{node: r.node.Child("download")}
}

// DatafileUploadResource is /rest/animals/datafile/upload. Every variant
// sends its content byte for byte.
type DatafileUploadResource struct{ node rest.Node }

func (r DatafileUploadResource) PostFile(ctx context.Context, path string) (*rest.Pending[string], error) {
	return r.post(ctx, body.File(path))
}

// PostStream reads src to the end once and closes it if it is an io.Closer.
func (r DatafileUploadResource) PostStream(ctx context.Context, src io.Reader) (*rest.Pending[string], error) {
	return r.post(ctx, body.NewStream(src))
}

func (r DatafileUploadResource) PostBytes(ctx context.Context, data []byte) (*rest.Pending[string], error) {
	return r.post(ctx, body.Bytes(data))
}

func (r DatafileUploadResource) PostText(ctx context.Context, text string) (*rest.Pending[string], error) {
	return r.post(ctx, body.Text(text))
}

func (r DatafileUploadResource) post(ctx context.Context, p body.Payload) (*rest.Pending[string], error) {
	return rest.Send(ctx, r.node, rest.Call{Method: http.MethodPost, Body: p}, rest.Text().WithAccept(MediaJSON))
}

// DatafileDownloadResource is /rest/animals/datafile/download.
type DatafileDownloadResource struct{ node rest.Node }

func (r DatafileDownloadResource) Get(ctx context.Context) (*rest.Pending[body.Binary], error) {
	return rest.Get(ctx, r.node, rest.Binary())
}

// BooksResource is /rest/books.
type BooksResource struct{ node rest.Node }

func (r BooksResource) Get(ctx context.Context) (*rest.Pending[[]Book], error) {
	return rest.Get(ctx, r.node, rest.JSON[[]Book]())
}

// ProfileResource is /rest/user/{userid}/profile.
type ProfileResource struct{ node rest.Node }

func (r UseridResource) Profile() ProfileResource {
	return ProfileResource{node: r.node.Child("profile")}
}

func (r ProfileResource) Get(ctx context.Context) (*rest.Pending[Profile], error) {
	return rest.Get(ctx, r.node, rest.JSON[Profile]())
}

func (r ProfileResource) Put(ctx context.Context, p Profile) (*rest.Pending[struct{}], error) {
	return rest.Put(ctx, r.node, body.Object{Value: &p}, rest.Empty())
}
