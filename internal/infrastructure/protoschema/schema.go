// Package protoschema holds the protobuf messages exchanged with billing and
// written to the event stream. The descriptors mirror api/proto and are built
// at init, so messages are handled as dynamicpb values.
package protoschema

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// PatientEventSchemaVersion is stamped next to every stream payload.
const PatientEventSchemaVersion = "patient.events.PatientEvent/v1"

// CreateBillingAccountMethod is the full gRPC method name.
const CreateBillingAccountMethod = "/billing.BillingService/CreateBillingAccount"

var (
	patientEventDesc    protoreflect.MessageDescriptor
	billingRequestDesc  protoreflect.MessageDescriptor
	billingResponseDesc protoreflect.MessageDescriptor
)

func init() {
	events := mustFile(&descriptorpb.FileDescriptorProto{
		Name:    proto.String("patient_event.proto"),
		Package: proto.String("patient.events"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			message("PatientEvent", "patient_id", "name", "email", "event_type"),
		},
	})
	patientEventDesc = events.Messages().ByName("PatientEvent")

	billing := mustFile(&descriptorpb.FileDescriptorProto{
		Name:    proto.String("billing_service.proto"),
		Package: proto.String("billing"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			message("BillingRequest", "patient_id", "name", "email"),
			message("BillingResponse", "account_id", "status"),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("BillingService"),
			Method: []*descriptorpb.MethodDescriptorProto{{
				Name:       proto.String("CreateBillingAccount"),
				InputType:  proto.String(".billing.BillingRequest"),
				OutputType: proto.String(".billing.BillingResponse"),
			}},
		}},
	})
	billingRequestDesc = billing.Messages().ByName("BillingRequest")
	billingResponseDesc = billing.Messages().ByName("BillingResponse")
}

// message declares a proto3 message of string fields numbered from 1.
func message(name string, fields ...string) *descriptorpb.DescriptorProto {
	m := &descriptorpb.DescriptorProto{Name: proto.String(name)}
	for i, f := range fields {
		m.Field = append(m.Field, &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(f),
			Number: proto.Int32(int32(i + 1)),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:   descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
		})
	}
	return m
}

func mustFile(fd *descriptorpb.FileDescriptorProto) protoreflect.FileDescriptor {
	f, err := protodesc.NewFile(fd, protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("protoschema: build %s: %v", fd.GetName(), err))
	}
	return f
}

func setString(m *dynamicpb.Message, field, value string) {
	m.Set(m.Descriptor().Fields().ByName(protoreflect.Name(field)), protoreflect.ValueOfString(value))
}

func getString(m *dynamicpb.Message, field string) string {
	return m.Get(m.Descriptor().Fields().ByName(protoreflect.Name(field))).String()
}
