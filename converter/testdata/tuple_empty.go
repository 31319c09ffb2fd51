var codec_tuple0 = bridge.TupleCodec(0,
	func(struct{}) ([]bridge.Value, error) { return nil, nil },
	func([]bridge.Value) (struct{}, error) { return struct{}{}, nil })
