var codec_int = bridge.IntCodec

var codec_str = bridge.StrCodec

// Tuple2StrInt holds the items of a tuple[str, int].
type Tuple2StrInt struct {
	F0 string
	F1 int64
}

var codec_tuple2_str_int = bridge.TupleCodec(2,
	func(t Tuple2StrInt) ([]bridge.Value, error) {
		var err error
		items := make([]bridge.Value, 2)
		if items[0], err = codec_str.Encode(t.F0); err != nil {
			return nil, err
		}
		if items[1], err = codec_int.Encode(t.F1); err != nil {
			return nil, err
		}
		return items, nil
	},
	func(items []bridge.Value) (t Tuple2StrInt, err error) {
		if t.F0, err = codec_str.Decode(items[0]); err != nil {
			return t, err
		}
		if t.F1, err = codec_int.Decode(items[1]); err != nil {
			return t, err
		}
		return t, nil
	})
