// Package zooclient is a client for the zoo API in the shape the generator
// produces: one resource type per path segment, typed call surfaces for
// vendor media types, and hierarchy tables registered with the codec.
//
//	zoo, err := zooclient.New("http://localhost:8281", rest.WithRequestCharset("UTF-8"))
//	if err != nil {
//	    return err
//	}
//	defer zoo.Close()
//
//	p, err := zoo.Rest.Animals().Get(ctx)
//	resp, err := p.AwaitTimeout(10 * time.Second)
//	animals, err := resp.Body() // []Animal holding *Dog, Cat, Fish values
package zooclient
